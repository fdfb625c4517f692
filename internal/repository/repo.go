package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"donation-service/internal/model"
	"donation-service/internal/schema"
)

// ErrNotFound is returned when a get or patch matches no record.
var ErrNotFound = errors.New("repository: record not found")

// PageSize is the fixed page length for donation listings.
const PageSize = 50

// DonationFilter narrows a donation listing. Zero values mean "no
// constraint"; results are newest first.
type DonationFilter struct {
	DonorAddress string
	OwnerID      string
	CreatedAfter time.Time // exclusive
	Offset       int
}

// DonationRepository is the persistence contract for donation records.
type DonationRepository interface {
	CreateDonation(ctx context.Context, donation *model.Donation) error
	GetDonation(ctx context.Context, id string) (model.Donation, error)
	FindDonations(ctx context.Context, filter DonationFilter) ([]model.Donation, error)
	PatchDonation(ctx context.Context, id string, fields map[string]any) (model.Donation, error)
}

// EntityStore is generic keyed access to the non-donation entity
// stores, used by the relation resolver and the aggregator.
type EntityStore interface {
	GetEntity(ctx context.Context, store schema.Store, field schema.Field, value any) (model.Entity, error)
	PatchEntity(ctx context.Context, store schema.Store, id string, fields map[schema.Field]any) (model.Entity, error)
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.Campaign{},
		&model.Milestone{},
		&model.DelegationPool{},
		&model.Donation{},
	)
	if err != nil {
		return nil, err
	}

	return &Database{db}, nil
}

func (d *Database) CreateDonation(ctx context.Context, donation *model.Donation) error {
	return d.db.WithContext(ctx).Create(donation).Error
}

func (d *Database) GetDonation(ctx context.Context, id string) (model.Donation, error) {
	var donation model.Donation
	err := d.db.WithContext(ctx).First(&donation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Donation{}, ErrNotFound
	}
	return donation, err
}

func (d *Database) FindDonations(ctx context.Context, filter DonationFilter) ([]model.Donation, error) {
	q := d.db.WithContext(ctx).Model(&model.Donation{})
	if filter.DonorAddress != "" {
		q = q.Where("donor_address = ?", filter.DonorAddress)
	}
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if !filter.CreatedAfter.IsZero() {
		q = q.Where("created_at > ?", filter.CreatedAfter)
	}

	var donations []model.Donation
	err := q.Order("created_at DESC").Offset(filter.Offset).Limit(PageSize).Find(&donations).Error

	return donations, err
}

func (d *Database) PatchDonation(ctx context.Context, id string, fields map[string]any) (model.Donation, error) {
	res := d.db.WithContext(ctx).Model(&model.Donation{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return model.Donation{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Donation{}, ErrNotFound
	}
	return d.GetDonation(ctx, id)
}

// columns maps store-level field names to sqlite columns. The set is
// closed; asking for a field outside it is a programming error.
var columns = map[schema.Field]string{
	schema.FieldID:            "id",
	schema.FieldAddress:       "address",
	schema.FieldProjectID:     "project_id",
	schema.FieldDonationCount: "donation_count",
	schema.FieldTotalDonated:  "total_donated",
}

func columnFor(field schema.Field) string {
	col, ok := columns[field]
	if !ok {
		panic(fmt.Sprintf("repository: unknown field %q", field))
	}
	return col
}

func (d *Database) GetEntity(ctx context.Context, store schema.Store, field schema.Field, value any) (model.Entity, error) {
	cond := columnFor(field) + " = ?"

	var (
		entity model.Entity
		err    error
	)
	switch store {
	case schema.StoreUsers:
		var user model.User
		err = d.db.WithContext(ctx).First(&user, cond, value).Error
		entity = &user
	case schema.StoreCampaigns:
		var campaign model.Campaign
		err = d.db.WithContext(ctx).First(&campaign, cond, value).Error
		entity = &campaign
	case schema.StoreMilestones:
		var milestone model.Milestone
		err = d.db.WithContext(ctx).First(&milestone, cond, value).Error
		entity = &milestone
	case schema.StoreDelegationPools:
		var pool model.DelegationPool
		err = d.db.WithContext(ctx).First(&pool, cond, value).Error
		entity = &pool
	default:
		panic(fmt.Sprintf("repository: unknown entity store %q", store))
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (d *Database) PatchEntity(ctx context.Context, store schema.Store, id string, fields map[schema.Field]any) (model.Entity, error) {
	updates := make(map[string]any, len(fields))
	for field, value := range fields {
		updates[columnFor(field)] = value
	}

	var target any
	switch store {
	case schema.StoreUsers:
		target = &model.User{}
	case schema.StoreCampaigns:
		target = &model.Campaign{}
	case schema.StoreMilestones:
		target = &model.Milestone{}
	case schema.StoreDelegationPools:
		target = &model.DelegationPool{}
	default:
		panic(fmt.Sprintf("repository: unknown entity store %q", store))
	}

	key := keyField(store)
	res := d.db.WithContext(ctx).Model(target).Where(columnFor(key)+" = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return d.GetEntity(ctx, store, key, id)
}

// keyField returns the primary-key field of a store. Users are keyed by
// address; everything else by id.
func keyField(store schema.Store) schema.Field {
	if store == schema.StoreUsers {
		return schema.FieldAddress
	}
	return schema.FieldID
}

// Seeding helpers used by tests and local setup.

func (d *Database) CreateUser(ctx context.Context, user *model.User) error {
	return d.db.WithContext(ctx).Create(user).Error
}

func (d *Database) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return d.db.WithContext(ctx).Create(campaign).Error
}

func (d *Database) CreateMilestone(ctx context.Context, milestone *model.Milestone) error {
	return d.db.WithContext(ctx).Create(milestone).Error
}

func (d *Database) CreateDelegationPool(ctx context.Context, pool *model.DelegationPool) error {
	return d.db.WithContext(ctx).Create(pool).Error
}

var _ DonationRepository = (*Database)(nil)
var _ EntityStore = (*Database)(nil)
