package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"donation-service/internal/model"
	"donation-service/internal/repository"
	"donation-service/internal/service"
	"donation-service/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreate_PersistsAndAggregates(t *testing.T) {
	campaign := &model.Campaign{ID: "C1", DonationCount: 2, TotalDonated: "500"}
	store := &mocks.MockEntityStore{Entities: []model.Entity{campaign}}
	repo := &mocks.MockDonationRepository{}
	svc := service.NewDonationService(repo, store, discardLogger())

	created, err := svc.Create(context.Background(), model.Donation{
		Amount:       "1000",
		DonorAddress: "0xdonor",
		OwnerType:    model.OwnerCampaign,
		OwnerID:      "C1",
	}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if created.ID == "" {
		t.Error("Expected a generated donation id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("Expected createdAt to be set")
	}
	if len(repo.Donations) != 1 {
		t.Fatalf("Expected 1 persisted donation, got %d", len(repo.Donations))
	}

	if campaign.DonationCount != 3 {
		t.Errorf("Expected campaign donation count 3, got %d", campaign.DonationCount)
	}
	if campaign.TotalDonated != "1500" {
		t.Errorf("Expected campaign total 1500, got %s", campaign.TotalDonated)
	}
}

func TestCreate_KeepsSuppliedCreatedAt(t *testing.T) {
	store := &mocks.MockEntityStore{Entities: []model.Entity{&model.Campaign{ID: "C1"}}}
	repo := &mocks.MockDonationRepository{}
	svc := service.NewDonationService(repo, store, discardLogger())

	suppliedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), model.Donation{
		Amount:       "10",
		DonorAddress: "0xdonor",
		OwnerType:    model.OwnerCampaign,
		OwnerID:      "C1",
		CreatedAt:    suppliedAt,
	}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !created.CreatedAt.Equal(suppliedAt) {
		t.Errorf("Expected createdAt %v to be preserved, got %v", suppliedAt, created.CreatedAt)
	}
}

func TestCreate_AggregationFailureDoesNotFailCreate(t *testing.T) {
	store := &mocks.MockEntityStore{GetErr: errors.New("store unavailable")}
	repo := &mocks.MockDonationRepository{}
	svc := service.NewDonationService(repo, store, discardLogger())

	_, err := svc.Create(context.Background(), model.Donation{
		Amount:       "10",
		DonorAddress: "0xdonor",
		OwnerType:    model.OwnerCampaign,
		OwnerID:      "C1",
	}, "")
	if err != nil {
		t.Fatalf("Expected create to succeed despite aggregation failure, got %v", err)
	}
	if len(repo.Donations) != 1 {
		t.Errorf("Expected the donation to be persisted, got %d records", len(repo.Donations))
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name     string
		donation model.Donation
	}{
		{
			name:     "amount not a decimal integer",
			donation: model.Donation{Amount: "12.5", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
		},
		{
			name:     "negative amount",
			donation: model.Donation{Amount: "-5", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
		},
		{
			name:     "unknown owner type",
			donation: model.Donation{Amount: "10", DonorAddress: "0xdonor", OwnerType: "charity", OwnerID: "C1"},
		},
		{
			name:     "missing ownerId",
			donation: model.Donation{Amount: "10", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign},
		},
		{
			name:     "dac owner without delegateId",
			donation: model.Donation{Amount: "10", DonorAddress: "0xdonor", OwnerType: model.OwnerDAC},
		},
		{
			name:     "missing donor address",
			donation: model.Donation{Amount: "10", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
		},
		{
			name:     "delegate without delegateId",
			donation: model.Donation{Amount: "10", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1", Delegate: true},
		},
		{
			name:     "proposed project with unknown type",
			donation: model.Donation{Amount: "10", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1", ProposedProject: 5, ProposedProjectType: "dac"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockDonationRepository{}
			svc := service.NewDonationService(repo, &mocks.MockEntityStore{}, discardLogger())

			_, err := svc.Create(context.Background(), tt.donation, "")

			var validation *service.ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("Expected a validation error, got %v", err)
			}
			if len(repo.Donations) != 0 {
				t.Error("Expected nothing to be persisted")
			}
		})
	}
}

func TestGet_JoinSelectionTable(t *testing.T) {
	donation := model.Donation{
		ID:           "don-1",
		Amount:       "1000",
		DonorAddress: "0xdonor",
		OwnerType:    model.OwnerCampaign,
		OwnerID:      "C1",
	}

	tests := []struct {
		name           string
		mode           service.Mode
		expectDonor    bool
		expectOwner    bool
		expectDelegate bool
		expectProposed bool
	}{
		{name: "unset mode attaches nothing", mode: ""},
		{name: "donor details", mode: service.ModeDonorDetails, expectDonor: true},
		{name: "type details", mode: service.ModeTypeDetails, expectOwner: true},
		{name: "type and donor details", mode: service.ModeTypeAndDonorDetails, expectDonor: true, expectOwner: true},
		{name: "unsupported mode attaches nothing", mode: "includeAll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.MockEntityStore{Entities: []model.Entity{
				&model.User{Address: "0xdonor"},
				&model.Campaign{ID: "C1"},
			}}
			repo := &mocks.MockDonationRepository{Donations: []model.Donation{donation}}
			svc := service.NewDonationService(repo, store, discardLogger())

			enriched, err := svc.Get(context.Background(), "don-1", tt.mode)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if got := enriched.Donor != nil; got != tt.expectDonor {
				t.Errorf("Donor attachment: expected %v, got %v", tt.expectDonor, got)
			}
			if got := enriched.OwnerEntity != nil; got != tt.expectOwner {
				t.Errorf("Owner attachment: expected %v, got %v", tt.expectOwner, got)
			}
			if got := enriched.DelegateEntity != nil; got != tt.expectDelegate {
				t.Errorf("Delegate attachment: expected %v, got %v", tt.expectDelegate, got)
			}
			if got := enriched.ProposedEntity != nil; got != tt.expectProposed {
				t.Errorf("Proposed attachment: expected %v, got %v", tt.expectProposed, got)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := service.NewDonationService(&mocks.MockDonationRepository{}, &mocks.MockEntityStore{}, discardLogger())

	_, err := svc.Get(context.Background(), "missing", "")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFind_PreservesOrderAndCount(t *testing.T) {
	donations := []model.Donation{
		{ID: "don-1", Amount: "1", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
		{ID: "don-2", Amount: "2", DonorAddress: "0xdonor", OwnerType: model.OwnerMilestone, OwnerID: "M1"},
		{ID: "don-3", Amount: "3", DonorAddress: "0xdonor", OwnerType: model.OwnerDonor},
	}
	store := &mocks.MockEntityStore{Entities: []model.Entity{
		&model.User{Address: "0xdonor"},
		&model.Campaign{ID: "C1"},
		&model.Milestone{ID: "M1"},
	}}
	repo := &mocks.MockDonationRepository{Donations: donations}
	svc := service.NewDonationService(repo, store, discardLogger())

	enriched, err := svc.Find(context.Background(), repository.DonationFilter{}, service.ModeTypeDetails)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(enriched) != len(donations) {
		t.Fatalf("Expected %d results, got %d", len(donations), len(enriched))
	}
	for i, donation := range donations {
		if enriched[i].ID != donation.ID {
			t.Errorf("Expected result %d to be %s, got %s", i, donation.ID, enriched[i].ID)
		}
		if enriched[i].OwnerEntity == nil {
			t.Errorf("Expected result %d to carry an owner attachment", i)
		}
	}
}

func TestFind_NoEnrichmentPassesThrough(t *testing.T) {
	donations := []model.Donation{
		{ID: "don-1", Amount: "1", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
		{ID: "don-2", Amount: "2", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
	}
	repo := &mocks.MockDonationRepository{Donations: donations}
	svc := service.NewDonationService(repo, &mocks.MockEntityStore{}, discardLogger())

	enriched, err := svc.Find(context.Background(), repository.DonationFilter{}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(enriched) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(enriched))
	}
	for i := range enriched {
		if enriched[i].Donor != nil || enriched[i].OwnerEntity != nil {
			t.Errorf("Expected result %d to be unenriched", i)
		}
	}
}

func TestPatch_RejectsUnknownFields(t *testing.T) {
	repo := &mocks.MockDonationRepository{Donations: []model.Donation{{ID: "don-1", Amount: "5"}}}
	svc := service.NewDonationService(repo, &mocks.MockEntityStore{}, discardLogger())

	_, err := svc.Patch(context.Background(), "don-1", map[string]any{"createdAt": "2024-01-01"}, "")

	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestPatch_UpdatesAmount(t *testing.T) {
	repo := &mocks.MockDonationRepository{Donations: []model.Donation{
		{ID: "don-1", Amount: "5", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
	}}
	svc := service.NewDonationService(repo, &mocks.MockEntityStore{}, discardLogger())

	updated, err := svc.Patch(context.Background(), "don-1", map[string]any{"amount": "99"}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Amount != "99" {
		t.Errorf("Expected amount 99, got %s", updated.Amount)
	}
}

func TestPatch_RejectsBadAmount(t *testing.T) {
	repo := &mocks.MockDonationRepository{Donations: []model.Donation{{ID: "don-1", Amount: "5"}}}
	svc := service.NewDonationService(repo, &mocks.MockEntityStore{}, discardLogger())

	_, err := svc.Patch(context.Background(), "don-1", map[string]any{"amount": "12.5"}, "")

	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestUpdate_ReplacesFieldsWithoutReaggregating(t *testing.T) {
	campaign := &model.Campaign{ID: "C1", DonationCount: 1, TotalDonated: "100"}
	store := &mocks.MockEntityStore{Entities: []model.Entity{campaign}}
	repo := &mocks.MockDonationRepository{Donations: []model.Donation{
		{ID: "don-1", Amount: "100", DonorAddress: "0xdonor", OwnerType: model.OwnerCampaign, OwnerID: "C1"},
	}}
	svc := service.NewDonationService(repo, store, discardLogger())

	updated, err := svc.Update(context.Background(), "don-1", model.Donation{
		Amount:       "250",
		DonorAddress: "0xdonor",
		OwnerType:    model.OwnerCampaign,
		OwnerID:      "C1",
	}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.Amount != "250" {
		t.Errorf("Expected amount 250, got %s", updated.Amount)
	}
	// only creation folds a donation into the totals
	if campaign.DonationCount != 1 || campaign.TotalDonated != "100" {
		t.Errorf("Expected totals untouched, got count=%d total=%s", campaign.DonationCount, campaign.TotalDonated)
	}
}
