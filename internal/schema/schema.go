// Package schema holds the relation join rules used to enrich donations
// with the entities they point at. The rule table is fixed at compile
// time and never mutated after process start.
package schema

import (
	"fmt"

	"donation-service/internal/model"
)

// Store names the entity store a join fetches from. The set is closed:
// donations themselves are never a join target, so they have no entry.
type Store string

const (
	StoreUsers           Store = "users"
	StoreCampaigns       Store = "campaigns"
	StoreMilestones      Store = "milestones"
	StoreDelegationPools Store = "delegationPools"
)

// Field names a store-level field a join matches on or reads from.
type Field string

const (
	FieldID              Field = "id"
	FieldAddress         Field = "address"
	FieldProjectID       Field = "projectId"
	FieldDonorAddress    Field = "donorAddress"
	FieldOwnerID         Field = "ownerId"
	FieldDelegateID      Field = "delegateId"
	FieldProposedProject Field = "proposedProject"
	FieldDonationCount   Field = "donationCount"
	FieldTotalDonated    Field = "totalDonated"
)

// Attachment names the slot a fetched entity occupies on the enriched
// donation. The donor appears under two different slots depending on
// whether it is shown as the payer or as the ultimate recipient.
type Attachment string

const (
	AttachDonor    Attachment = "donor"
	AttachOwner    Attachment = "ownerEntity"
	AttachDelegate Attachment = "delegateEntity"
	AttachProposed Attachment = "proposedEntity"
)

// Join names one entry in the rule table.
type Join string

const (
	JoinDonor             Join = "donor"
	JoinDonorAsOwner      Join = "donor-as-owner"
	JoinCampaignOwner     Join = "campaign-owner"
	JoinCampaignProposed  Join = "campaign-proposed"
	JoinMilestoneOwner    Join = "milestone-owner"
	JoinMilestoneProposed Join = "milestone-proposed"
	JoinDelegationPool    Join = "delegation-pool"
)

// Rule describes how to fetch and attach one related entity: which
// store to query, which donation field supplies the key, which target
// field it matches, and where the result attaches. UseNestedJoin marks
// targets whose own proposed-project pointer is expanded one level deep
// after the fetch.
type Rule struct {
	TargetStore   Store
	AttachAs      Attachment
	SourceField   Field
	TargetField   Field
	UseNestedJoin bool
}

var rules = map[Join]Rule{
	JoinDonor: {
		TargetStore: StoreUsers,
		AttachAs:    AttachDonor,
		SourceField: FieldDonorAddress,
		TargetField: FieldAddress,
	},
	JoinDonorAsOwner: {
		TargetStore: StoreUsers,
		AttachAs:    AttachOwner,
		SourceField: FieldDonorAddress,
		TargetField: FieldAddress,
	},
	JoinCampaignOwner: {
		TargetStore:   StoreCampaigns,
		AttachAs:      AttachOwner,
		SourceField:   FieldOwnerID,
		TargetField:   FieldID,
		UseNestedJoin: true,
	},
	JoinCampaignProposed: {
		TargetStore:   StoreCampaigns,
		AttachAs:      AttachProposed,
		SourceField:   FieldProposedProject,
		TargetField:   FieldProjectID,
		UseNestedJoin: true,
	},
	JoinMilestoneOwner: {
		TargetStore:   StoreMilestones,
		AttachAs:      AttachOwner,
		SourceField:   FieldOwnerID,
		TargetField:   FieldID,
		UseNestedJoin: true,
	},
	JoinMilestoneProposed: {
		TargetStore:   StoreMilestones,
		AttachAs:      AttachProposed,
		SourceField:   FieldProposedProject,
		TargetField:   FieldProjectID,
		UseNestedJoin: true,
	},
	JoinDelegationPool: {
		TargetStore:   StoreDelegationPools,
		AttachAs:      AttachDelegate,
		SourceField:   FieldDelegateID,
		TargetField:   FieldID,
		UseNestedJoin: true,
	},
}

// Lookup returns the rule registered under name. The join set is closed
// and driven entirely by the resolver, so an unknown name is a
// programming error and panics.
func Lookup(name Join) Rule {
	rule, ok := rules[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown join %q", name))
	}
	return rule
}

// OwnerJoin maps a donation's owner type to the join rule that fetches
// its owner entity. A donor owner uses the donor-as-owner rule so the
// user attaches under ownerEntity rather than donor.
func OwnerJoin(ownerType model.OwnerType) (Join, error) {
	switch ownerType {
	case model.OwnerDonor:
		return JoinDonorAsOwner, nil
	case model.OwnerCampaign:
		return JoinCampaignOwner, nil
	case model.OwnerMilestone:
		return JoinMilestoneOwner, nil
	case model.OwnerDAC:
		return JoinDelegationPool, nil
	default:
		return "", fmt.Errorf("schema: no owner join for owner type %q", ownerType)
	}
}

// ProposedJoin maps a proposedProjectType to the join rule that fetches
// the proposed project.
func ProposedJoin(projectType model.ProjectType) (Join, error) {
	switch projectType {
	case model.ProjectCampaign:
		return JoinCampaignProposed, nil
	case model.ProjectMilestone:
		return JoinMilestoneProposed, nil
	default:
		return "", fmt.Errorf("schema: no proposed join for project type %q", projectType)
	}
}
