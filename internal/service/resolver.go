package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"donation-service/internal/model"
	"donation-service/internal/repository"
	"donation-service/internal/schema"
)

// Resolver fetches and attaches the related entities a donation points
// at, driven by the schema rule table. A missing related entity is not
// an error: the attachment slot is left empty. Store failures
// propagate, since a caller who asked for enrichment needs to know it
// did not happen.
type Resolver struct {
	store repository.EntityStore
}

func NewResolver(store repository.EntityStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve attaches the owner entity and, when present, the delegation
// pool and the proposed project. The three fetches are independent and
// run concurrently; each writes its own attachment slot.
func (r *Resolver) Resolve(ctx context.Context, donation model.Donation) (model.EnrichedDonation, error) {
	enriched := model.EnrichedDonation{Donation: donation}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.resolveOwner(ctx, donation, &enriched)
	})
	// A dac owner already attaches the pool through the owner join, and
	// both joins would write the same slot.
	if donation.Delegate && donation.OwnerType != model.OwnerDAC {
		g.Go(func() error {
			return r.resolveJoin(ctx, schema.JoinDelegationPool, donation, &enriched)
		})
	}
	if donation.ProposedProject > 0 {
		g.Go(func() error {
			join, err := schema.ProposedJoin(donation.ProposedProjectType)
			if err != nil {
				return err
			}
			return r.resolveJoin(ctx, join, donation, &enriched)
		})
	}

	if err := g.Wait(); err != nil {
		return model.EnrichedDonation{}, err
	}
	return enriched, nil
}

// AttachDonor fetches the payer's user record and attaches it under the
// donor slot. Used on its own for includeDonorDetails and merged with
// Resolve's output for includeTypeAndDonorDetails.
func (r *Resolver) AttachDonor(ctx context.Context, enriched *model.EnrichedDonation) error {
	return r.resolveJoin(ctx, schema.JoinDonor, enriched.Donation, enriched)
}

func (r *Resolver) resolveOwner(ctx context.Context, donation model.Donation, enriched *model.EnrichedDonation) error {
	join, err := schema.OwnerJoin(donation.OwnerType)
	if err != nil {
		return err
	}
	return r.resolveJoin(ctx, join, donation, enriched)
}

// resolveJoin runs one rule: fetch the target, expand its own proposed
// project when the rule asks for it, and attach the result.
func (r *Resolver) resolveJoin(ctx context.Context, join schema.Join, donation model.Donation, enriched *model.EnrichedDonation) error {
	rule := schema.Lookup(join)

	entity, err := r.store.GetEntity(ctx, rule.TargetStore, rule.TargetField, sourceValue(rule, donation))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if rule.UseNestedJoin {
		if err := r.expandProposed(ctx, entity); err != nil {
			return err
		}
	}

	attach(enriched, rule.AttachAs, entity)
	return nil
}

// expandProposed resolves the fetched entity's own proposed-project
// pointer, exactly one level deep. The nested entity's pointers are
// never followed.
func (r *Resolver) expandProposed(ctx context.Context, entity model.Entity) error {
	var (
		project     int64
		projectType model.ProjectType
		slot        *model.Entity
	)
	switch e := entity.(type) {
	case *model.Campaign:
		project, projectType, slot = e.ProposedProject, e.ProposedProjectType, &e.ProposedEntity
	case *model.Milestone:
		project, projectType, slot = e.ProposedProject, e.ProposedProjectType, &e.ProposedEntity
	default:
		return nil
	}
	if project <= 0 {
		return nil
	}

	join, err := schema.ProposedJoin(projectType)
	if err != nil {
		return err
	}
	rule := schema.Lookup(join)

	nested, err := r.store.GetEntity(ctx, rule.TargetStore, rule.TargetField, project)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	*slot = nested
	return nil
}

func sourceValue(rule schema.Rule, donation model.Donation) any {
	switch rule.SourceField {
	case schema.FieldDonorAddress:
		return donation.DonorAddress
	case schema.FieldOwnerID:
		return donation.OwnerID
	case schema.FieldDelegateID:
		return donation.DelegateID
	case schema.FieldProposedProject:
		return donation.ProposedProject
	default:
		panic(fmt.Sprintf("service: join rule reads unknown donation field %q", rule.SourceField))
	}
}

func attach(enriched *model.EnrichedDonation, as schema.Attachment, entity model.Entity) {
	switch as {
	case schema.AttachDonor:
		enriched.Donor = entity.(*model.User)
	case schema.AttachOwner:
		enriched.OwnerEntity = entity
	case schema.AttachDelegate:
		enriched.DelegateEntity = entity.(*model.DelegationPool)
	case schema.AttachProposed:
		enriched.ProposedEntity = entity
	default:
		panic(fmt.Sprintf("service: unknown attachment slot %q", as))
	}
}
