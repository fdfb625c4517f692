package model

import "time"

// OwnerType identifies the kind of entity a donation is ultimately
// attributed to.
type OwnerType string

const (
	OwnerCampaign  OwnerType = "campaign"
	OwnerMilestone OwnerType = "milestone"
	OwnerDAC       OwnerType = "dac"
	OwnerDonor     OwnerType = "donor"
)

// ProjectType identifies the kind of entity a proposedProject pointer
// refers to.
type ProjectType string

const (
	ProjectCampaign  ProjectType = "campaign"
	ProjectMilestone ProjectType = "milestone"
)

// Entity is implemented by every record a donation can be joined
// against. Polymorphic attachment slots hold it instead of a concrete
// type.
type Entity interface {
	EntityID() string
}

// Donation is a single pledge. Amount is a non-negative integer encoded
// as a decimal string, denominated in the smallest currency unit.
type Donation struct {
	ID                  string      `gorm:"primaryKey" json:"id"`
	Amount              string      `json:"amount"`
	DonorAddress        string      `gorm:"index" json:"donorAddress"`
	OwnerType           OwnerType   `json:"ownerType"`
	OwnerID             string      `gorm:"index" json:"ownerId,omitempty"`
	Delegate            bool        `json:"delegate"`
	DelegateID          string      `json:"delegateId,omitempty"`
	ProposedProject     int64       `json:"proposedProject"`
	ProposedProjectType ProjectType `json:"proposedProjectType,omitempty"`
	CreatedAt           time.Time   `gorm:"index" json:"createdAt"`
}

// User is the paying party behind a donation, keyed by address.
type User struct {
	Address string `gorm:"primaryKey" json:"address"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar,omitempty"`
}

func (u *User) EntityID() string { return u.Address }

// Campaign carries running donation totals and may itself point at a
// proposed project, resolved one level deep during nested expansion.
type Campaign struct {
	ID                  string      `gorm:"primaryKey" json:"id"`
	Title               string      `json:"title"`
	ProjectID           int64       `gorm:"index" json:"projectId"`
	ProposedProject     int64       `json:"proposedProject"`
	ProposedProjectType ProjectType `json:"proposedProjectType,omitempty"`
	DonationCount       int64       `json:"donationCount"`
	TotalDonated        string      `json:"totalDonated"`
	ProposedEntity      Entity      `gorm:"-" json:"proposedEntity,omitempty"`
}

func (c *Campaign) EntityID() string { return c.ID }

// Milestone is a deliverable within a campaign. Same totals and nested
// proposed-project shape as Campaign.
type Milestone struct {
	ID                  string      `gorm:"primaryKey" json:"id"`
	Title               string      `json:"title"`
	CampaignID          string      `gorm:"index" json:"campaignId,omitempty"`
	ProjectID           int64       `gorm:"index" json:"projectId"`
	ProposedProject     int64       `json:"proposedProject"`
	ProposedProjectType ProjectType `json:"proposedProjectType,omitempty"`
	DonationCount       int64       `json:"donationCount"`
	TotalDonated        string      `json:"totalDonated"`
	ProposedEntity      Entity      `gorm:"-" json:"proposedEntity,omitempty"`
}

func (m *Milestone) EntityID() string { return m.ID }

// DelegationPool is a delegation intermediary a donation may be routed
// through before reaching its final target.
type DelegationPool struct {
	ID            string `gorm:"primaryKey" json:"id"`
	Title         string `json:"title"`
	DonationCount int64  `json:"donationCount"`
	TotalDonated  string `json:"totalDonated"`
}

func (p *DelegationPool) EntityID() string { return p.ID }

// EnrichedDonation is a donation plus whatever related entities were
// attached for the caller. Slots left empty are omitted from JSON, not
// null-filled.
type EnrichedDonation struct {
	Donation
	Donor          *User           `json:"donor,omitempty"`
	OwnerEntity    Entity          `json:"ownerEntity,omitempty"`
	DelegateEntity *DelegationPool `json:"delegateEntity,omitempty"`
	ProposedEntity Entity          `json:"proposedEntity,omitempty"`
}
