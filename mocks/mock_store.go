package mocks

import (
	"context"
	"fmt"
	"sync"

	"donation-service/internal/model"
	"donation-service/internal/repository"
	"donation-service/internal/schema"
)

// PatchCall records one PatchEntity invocation.
type PatchCall struct {
	Store  schema.Store
	ID     string
	Fields map[schema.Field]any
}

// MockEntityStore serves entities from an in-memory slice and applies
// patches to them in place. Safe for concurrent use so aggregation
// tests can hammer it from multiple goroutines.
type MockEntityStore struct {
	mu       sync.Mutex
	Entities []model.Entity
	GetErr   error
	PatchErr error
	Patches  []PatchCall
}

func (m *MockEntityStore) GetEntity(_ context.Context, store schema.Store, field schema.Field, value any) (model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, entity := range m.Entities {
		if storeOf(entity) == store && fieldValue(entity, field) == value {
			return entity, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockEntityStore) PatchEntity(_ context.Context, store schema.Store, id string, fields map[schema.Field]any) (model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PatchErr != nil {
		return nil, m.PatchErr
	}
	m.Patches = append(m.Patches, PatchCall{Store: store, ID: id, Fields: fields})

	for _, entity := range m.Entities {
		if storeOf(entity) != store || entity.EntityID() != id {
			continue
		}
		applyTotals(entity, fields)
		return entity, nil
	}
	return nil, repository.ErrNotFound
}

func storeOf(entity model.Entity) schema.Store {
	switch entity.(type) {
	case *model.User:
		return schema.StoreUsers
	case *model.Campaign:
		return schema.StoreCampaigns
	case *model.Milestone:
		return schema.StoreMilestones
	case *model.DelegationPool:
		return schema.StoreDelegationPools
	default:
		panic(fmt.Sprintf("mocks: unknown entity type %T", entity))
	}
}

func fieldValue(entity model.Entity, field schema.Field) any {
	switch e := entity.(type) {
	case *model.User:
		if field == schema.FieldAddress {
			return e.Address
		}
	case *model.Campaign:
		switch field {
		case schema.FieldID:
			return e.ID
		case schema.FieldProjectID:
			return e.ProjectID
		}
	case *model.Milestone:
		switch field {
		case schema.FieldID:
			return e.ID
		case schema.FieldProjectID:
			return e.ProjectID
		}
	case *model.DelegationPool:
		if field == schema.FieldID {
			return e.ID
		}
	}
	return nil
}

func applyTotals(entity model.Entity, fields map[schema.Field]any) {
	count, hasCount := fields[schema.FieldDonationCount]
	total, hasTotal := fields[schema.FieldTotalDonated]

	switch e := entity.(type) {
	case *model.Campaign:
		if hasCount {
			e.DonationCount = count.(int64)
		}
		if hasTotal {
			e.TotalDonated = total.(string)
		}
	case *model.Milestone:
		if hasCount {
			e.DonationCount = count.(int64)
		}
		if hasTotal {
			e.TotalDonated = total.(string)
		}
	case *model.DelegationPool:
		if hasCount {
			e.DonationCount = count.(int64)
		}
		if hasTotal {
			e.TotalDonated = total.(string)
		}
	}
}

// MockDonationRepository keeps donations in memory.
type MockDonationRepository struct {
	mu        sync.Mutex
	Donations []model.Donation
	CreateErr error
	FindErr   error
	PatchErr  error
}

func (m *MockDonationRepository) CreateDonation(_ context.Context, donation *model.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Donations = append(m.Donations, *donation)
	return nil
}

func (m *MockDonationRepository) GetDonation(_ context.Context, id string) (model.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, donation := range m.Donations {
		if donation.ID == id {
			return donation, nil
		}
	}
	return model.Donation{}, repository.ErrNotFound
}

func (m *MockDonationRepository) FindDonations(_ context.Context, filter repository.DonationFilter) ([]model.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}

	var matched []model.Donation
	for _, donation := range m.Donations {
		if filter.DonorAddress != "" && donation.DonorAddress != filter.DonorAddress {
			continue
		}
		if filter.OwnerID != "" && donation.OwnerID != filter.OwnerID {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !donation.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		matched = append(matched, donation)
	}
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	return matched[filter.Offset:], nil
}

func (m *MockDonationRepository) PatchDonation(_ context.Context, id string, fields map[string]any) (model.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PatchErr != nil {
		return model.Donation{}, m.PatchErr
	}
	for i := range m.Donations {
		if m.Donations[i].ID != id {
			continue
		}
		applyDonationFields(&m.Donations[i], fields)
		return m.Donations[i], nil
	}
	return model.Donation{}, repository.ErrNotFound
}

func applyDonationFields(donation *model.Donation, fields map[string]any) {
	for column, value := range fields {
		switch column {
		case "amount":
			donation.Amount, _ = value.(string)
		case "donor_address":
			donation.DonorAddress, _ = value.(string)
		case "owner_type":
			if s, ok := value.(string); ok {
				donation.OwnerType = model.OwnerType(s)
			} else if t, ok := value.(model.OwnerType); ok {
				donation.OwnerType = t
			}
		case "owner_id":
			donation.OwnerID, _ = value.(string)
		case "delegate":
			donation.Delegate, _ = value.(bool)
		case "delegate_id":
			donation.DelegateID, _ = value.(string)
		case "proposed_project":
			switch v := value.(type) {
			case int64:
				donation.ProposedProject = v
			case int:
				donation.ProposedProject = int64(v)
			case float64:
				donation.ProposedProject = int64(v)
			}
		case "proposed_project_type":
			if s, ok := value.(string); ok {
				donation.ProposedProjectType = model.ProjectType(s)
			} else if t, ok := value.(model.ProjectType); ok {
				donation.ProposedProjectType = t
			}
		}
	}
}

var _ repository.EntityStore = (*MockEntityStore)(nil)
var _ repository.DonationRepository = (*MockDonationRepository)(nil)
