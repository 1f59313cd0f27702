package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pressmarket/internal/models"
	"pressmarket/internal/repository"
)

// stubRepo satisfies repository.Repository with overridable hooks; methods
// without a hook return zero values. InTx runs the callback with a nil tx,
// which the hooks ignore.
type stubRepo struct {
	getOpportunityByID        func(id uint64) (*models.Opportunity, error)
	getOpportunityForUpdateTx func(id uint64) (*models.Opportunity, error)
	listOpenPastDeadline      func(now time.Time, limit int) ([]models.Opportunity, error)
	closeOpportunity          func(id uint64, now time.Time) (*models.Opportunity, error)
	updateOpportunityPriceTx  func(id uint64, price decimal.Decimal, breakdown datatypes.JSON) error
	insertPriceSnapshotTx     func(item *models.PriceSnapshot) error
	listPriceSnapshots        func(params repository.ListPriceSnapshotsParams) ([]models.PriceSnapshot, error)
	getPublicationByID        func(id uint64) (*models.Publication, error)
	getPricingVariableByName  func(name string) (*models.PricingVariable, error)
	upsertPricingVariable     func(item *models.PricingVariable) error
	getPricingConfigByKey     func(key string) (*models.PricingConfig, error)
	upsertPricingConfig       func(item *models.PricingConfig) error

	insertedOpportunities []*models.Opportunity
	insertedSnapshots     []*models.PriceSnapshot
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) InsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	s.insertedOpportunities = append(s.insertedOpportunities, item)
	return nil
}

func (s *stubRepo) InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	item.ID = uint64(len(s.insertedOpportunities) + 1)
	s.insertedOpportunities = append(s.insertedOpportunities, item)
	return nil
}

func (s *stubRepo) GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	if s.getOpportunityByID != nil {
		return s.getOpportunityByID(id)
	}
	return nil, nil
}

func (s *stubRepo) GetOpportunityForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Opportunity, error) {
	if s.getOpportunityForUpdateTx != nil {
		return s.getOpportunityForUpdateTx(id)
	}
	return nil, nil
}

func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	return nil, nil
}

func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	return nil, nil
}

func (s *stubRepo) ListOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.Opportunity, error) {
	if s.listOpenPastDeadline != nil {
		return s.listOpenPastDeadline(now, limit)
	}
	return nil, nil
}

func (s *stubRepo) UpdateOpportunityPriceTx(ctx context.Context, tx *gorm.DB, id uint64, price decimal.Decimal, breakdown datatypes.JSON) error {
	if s.updateOpportunityPriceTx != nil {
		return s.updateOpportunityPriceTx(id, price, breakdown)
	}
	return nil
}

func (s *stubRepo) CloseOpportunity(ctx context.Context, id uint64, now time.Time) (*models.Opportunity, error) {
	if s.closeOpportunity != nil {
		return s.closeOpportunity(id, now)
	}
	return nil, nil
}

func (s *stubRepo) CountOpenByPublication(ctx context.Context, publicationID uint64, excludeID uint64) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertPublication(ctx context.Context, item *models.Publication) error {
	return nil
}

func (s *stubRepo) GetPublicationByID(ctx context.Context, id uint64) (*models.Publication, error) {
	if s.getPublicationByID != nil {
		return s.getPublicationByID(id)
	}
	return &models.Publication{ID: id, Name: "Test Outlet"}, nil
}

func (s *stubRepo) CountPitchesSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) PitchConversion(ctx context.Context, opportunityID uint64) (int64, int64, error) {
	return 0, 0, nil
}

func (s *stubRepo) InsertEmailClickEvent(ctx context.Context, item *models.EmailClickEvent) error {
	return nil
}

func (s *stubRepo) CountClickEventsSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) DeleteClickEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertPriceSnapshotTx(ctx context.Context, tx *gorm.DB, item *models.PriceSnapshot) error {
	if s.insertPriceSnapshotTx != nil {
		return s.insertPriceSnapshotTx(item)
	}
	s.insertedSnapshots = append(s.insertedSnapshots, item)
	return nil
}

func (s *stubRepo) GetLatestPriceSnapshot(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error) {
	return nil, nil
}

func (s *stubRepo) ListPriceSnapshots(ctx context.Context, params repository.ListPriceSnapshotsParams) ([]models.PriceSnapshot, error) {
	if s.listPriceSnapshots != nil {
		return s.listPriceSnapshots(params)
	}
	return nil, nil
}

func (s *stubRepo) ListPricingVariables(ctx context.Context) ([]models.PricingVariable, error) {
	return nil, nil
}

func (s *stubRepo) GetPricingVariableByName(ctx context.Context, name string) (*models.PricingVariable, error) {
	if s.getPricingVariableByName != nil {
		return s.getPricingVariableByName(name)
	}
	return nil, nil
}

func (s *stubRepo) UpsertPricingVariable(ctx context.Context, item *models.PricingVariable) error {
	if s.upsertPricingVariable != nil {
		return s.upsertPricingVariable(item)
	}
	return nil
}

func (s *stubRepo) ListPricingConfigs(ctx context.Context) ([]models.PricingConfig, error) {
	return nil, nil
}

func (s *stubRepo) GetPricingConfigByKey(ctx context.Context, key string) (*models.PricingConfig, error) {
	if s.getPricingConfigByKey != nil {
		return s.getPricingConfigByKey(key)
	}
	return nil, nil
}

func (s *stubRepo) UpsertPricingConfig(ctx context.Context, item *models.PricingConfig) error {
	if s.upsertPricingConfig != nil {
		return s.upsertPricingConfig(item)
	}
	return nil
}

func (s *stubRepo) MaxTuningUpdatedAt(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
