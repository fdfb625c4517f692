package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"donation-service/internal/model"
	"donation-service/internal/repository"
)

// DonationService is the business-logic surface the API layer talks to.
// Every read path takes the caller's enrichment mode; every result is
// enriched (or not) according to it.
type DonationService interface {
	Create(ctx context.Context, donation model.Donation, mode Mode) (model.EnrichedDonation, error)
	Get(ctx context.Context, id string, mode Mode) (model.EnrichedDonation, error)
	Find(ctx context.Context, filter repository.DonationFilter, mode Mode) ([]model.EnrichedDonation, error)
	Update(ctx context.Context, id string, donation model.Donation, mode Mode) (model.EnrichedDonation, error)
	Patch(ctx context.Context, id string, fields map[string]any, mode Mode) (model.EnrichedDonation, error)
}

// ValidationError rejects a donation payload before it is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Donations struct {
	repo     repository.DonationRepository
	resolver *Resolver
	agg      *Aggregator
	logger   *slog.Logger
}

func NewDonationService(repo repository.DonationRepository, store repository.EntityStore, logger *slog.Logger) DonationService {
	return &Donations{
		repo:     repo,
		resolver: NewResolver(store),
		agg:      NewAggregator(store),
		logger:   logger,
	}
}

// Create persists the donation, folds it into its aggregate target, and
// returns the (optionally enriched) record. Aggregation runs before the
// response is released but never fails the create: a failed fold is
// logged and the totals simply do not reflect the donation.
func (s *Donations) Create(ctx context.Context, donation model.Donation, mode Mode) (model.EnrichedDonation, error) {
	if err := validateDonation(donation); err != nil {
		return model.EnrichedDonation{}, err
	}
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.CreateDonation(ctx, &donation); err != nil {
		return model.EnrichedDonation{}, err
	}

	outcome := s.agg.Apply(ctx, donation)
	switch outcome.Status {
	case OutcomeApplied:
		s.logger.Info("donation aggregated",
			"donation_id", donation.ID,
			"store", string(outcome.Store),
			"target_id", outcome.TargetID,
		)
	case OutcomeSkipped:
		s.logger.Debug("donation not aggregated",
			"donation_id", donation.ID,
			"reason", outcome.Reason,
		)
	case OutcomeFailed:
		s.logger.Error("donation aggregation failed",
			"donation_id", donation.ID,
			"store", string(outcome.Store),
			"target_id", outcome.TargetID,
			"reason", outcome.Reason,
		)
	}

	return s.enrich(ctx, donation, mode)
}

func (s *Donations) Get(ctx context.Context, id string, mode Mode) (model.EnrichedDonation, error) {
	donation, err := s.repo.GetDonation(ctx, id)
	if err != nil {
		return model.EnrichedDonation{}, err
	}
	return s.enrich(ctx, donation, mode)
}

// Find lists donations and enriches each independently and
// concurrently. Output order and count match the repository result.
func (s *Donations) Find(ctx context.Context, filter repository.DonationFilter, mode Mode) ([]model.EnrichedDonation, error) {
	donations, err := s.repo.FindDonations(ctx, filter)
	if err != nil {
		return nil, err
	}

	enriched := make([]model.EnrichedDonation, len(donations))

	plan := SelectJoins(mode)
	if !plan.Donor && !plan.TypeDetails {
		for i, donation := range donations {
			enriched[i] = model.EnrichedDonation{Donation: donation}
		}
		return enriched, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, donation := range donations {
		i, donation := i, donation
		g.Go(func() error {
			result, err := s.enrich(ctx, donation, mode)
			if err != nil {
				return err
			}
			enriched[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}

// Update replaces the mutable fields of an existing donation. The
// aggregate totals are untouched: only creation folds a donation in.
func (s *Donations) Update(ctx context.Context, id string, donation model.Donation, mode Mode) (model.EnrichedDonation, error) {
	if err := validateDonation(donation); err != nil {
		return model.EnrichedDonation{}, err
	}

	updated, err := s.repo.PatchDonation(ctx, id, map[string]any{
		"amount":                donation.Amount,
		"donor_address":         donation.DonorAddress,
		"owner_type":            donation.OwnerType,
		"owner_id":              donation.OwnerID,
		"delegate":              donation.Delegate,
		"delegate_id":           donation.DelegateID,
		"proposed_project":      donation.ProposedProject,
		"proposed_project_type": donation.ProposedProjectType,
	})
	if err != nil {
		return model.EnrichedDonation{}, err
	}
	return s.enrich(ctx, updated, mode)
}

// patchColumns maps the JSON field names a caller may patch to their
// storage columns. Identity and creation time are not patchable.
var patchColumns = map[string]string{
	"amount":              "amount",
	"donorAddress":        "donor_address",
	"ownerType":           "owner_type",
	"ownerId":             "owner_id",
	"delegate":            "delegate",
	"delegateId":          "delegate_id",
	"proposedProject":     "proposed_project",
	"proposedProjectType": "proposed_project_type",
}

func (s *Donations) Patch(ctx context.Context, id string, fields map[string]any, mode Mode) (model.EnrichedDonation, error) {
	updates := make(map[string]any, len(fields))
	for name, value := range fields {
		column, ok := patchColumns[name]
		if !ok {
			return model.EnrichedDonation{}, &ValidationError{Field: name, Reason: "field is not patchable"}
		}
		updates[column] = value
	}
	if amount, ok := updates["amount"]; ok {
		str, _ := amount.(string)
		if _, err := parseAmount(str); err != nil {
			return model.EnrichedDonation{}, &ValidationError{Field: "amount", Reason: "must be a non-negative decimal integer string"}
		}
	}

	updated, err := s.repo.PatchDonation(ctx, id, updates)
	if err != nil {
		return model.EnrichedDonation{}, err
	}
	return s.enrich(ctx, updated, mode)
}

// enrich applies the verbosity gate to one donation. For
// includeTypeAndDonorDetails both results merge into the same record:
// the donor slot and the type-detail slots are disjoint.
func (s *Donations) enrich(ctx context.Context, donation model.Donation, mode Mode) (model.EnrichedDonation, error) {
	plan := SelectJoins(mode)

	enriched := model.EnrichedDonation{Donation: donation}
	if plan.TypeDetails {
		var err error
		enriched, err = s.resolver.Resolve(ctx, donation)
		if err != nil {
			return model.EnrichedDonation{}, err
		}
	}
	if plan.Donor {
		if err := s.resolver.AttachDonor(ctx, &enriched); err != nil {
			return model.EnrichedDonation{}, err
		}
	}
	return enriched, nil
}

func validateDonation(donation model.Donation) error {
	if _, err := parseAmount(donation.Amount); err != nil {
		return &ValidationError{Field: "amount", Reason: "must be a non-negative decimal integer string"}
	}

	switch donation.OwnerType {
	case model.OwnerCampaign, model.OwnerMilestone:
		if donation.OwnerID == "" {
			return &ValidationError{Field: "ownerId", Reason: fmt.Sprintf("required for owner type %q", donation.OwnerType)}
		}
	case model.OwnerDAC:
		// dac owners resolve through the delegation pool by delegateId
		if donation.DelegateID == "" {
			return &ValidationError{Field: "delegateId", Reason: "required for owner type \"dac\""}
		}
	case model.OwnerDonor:
		// attributed back to the payer, no ownerId
	default:
		return &ValidationError{Field: "ownerType", Reason: fmt.Sprintf("unknown owner type %q", donation.OwnerType)}
	}

	if donation.DonorAddress == "" {
		return &ValidationError{Field: "donorAddress", Reason: "required"}
	}
	if donation.Delegate && donation.DelegateID == "" {
		return &ValidationError{Field: "delegateId", Reason: "required when delegate is set"}
	}
	if donation.ProposedProject > 0 {
		switch donation.ProposedProjectType {
		case model.ProjectCampaign, model.ProjectMilestone:
		default:
			return &ValidationError{Field: "proposedProjectType", Reason: fmt.Sprintf("unknown project type %q", donation.ProposedProjectType)}
		}
	}
	return nil
}

var _ DonationService = (*Donations)(nil)
