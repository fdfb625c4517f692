package mocks

import (
	"context"

	"donation-service/internal/model"
	"donation-service/internal/repository"
	"donation-service/internal/service"
)

// MockDonationService returns canned results and records the arguments
// of the last call so handler tests can assert on them.
type MockDonationService struct {
	Result  model.EnrichedDonation
	Results []model.EnrichedDonation
	Err     error

	LastMode   service.Mode
	LastFilter repository.DonationFilter
	LastID     string
	Created    *model.Donation
}

func (m *MockDonationService) Create(_ context.Context, donation model.Donation, mode service.Mode) (model.EnrichedDonation, error) {
	m.LastMode = mode
	m.Created = &donation
	return m.Result, m.Err
}

func (m *MockDonationService) Get(_ context.Context, id string, mode service.Mode) (model.EnrichedDonation, error) {
	m.LastMode = mode
	m.LastID = id
	return m.Result, m.Err
}

func (m *MockDonationService) Find(_ context.Context, filter repository.DonationFilter, mode service.Mode) ([]model.EnrichedDonation, error) {
	m.LastMode = mode
	m.LastFilter = filter
	return m.Results, m.Err
}

func (m *MockDonationService) Update(_ context.Context, id string, donation model.Donation, mode service.Mode) (model.EnrichedDonation, error) {
	m.LastMode = mode
	m.LastID = id
	return m.Result, m.Err
}

func (m *MockDonationService) Patch(_ context.Context, id string, _ map[string]any, mode service.Mode) (model.EnrichedDonation, error) {
	m.LastMode = mode
	m.LastID = id
	return m.Result, m.Err
}

var _ service.DonationService = (*MockDonationService)(nil)
