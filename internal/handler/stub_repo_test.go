package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pressmarket/internal/models"
	"pressmarket/internal/repository"
)

// stubRepo backs handler tests end to end: opportunities live in a map and
// price updates mutate them, so the real service and engine code runs against
// it unchanged.
type stubRepo struct {
	opportunities map[uint64]*models.Opportunity
	snapshots     []models.PriceSnapshot
	clicks        []models.EmailClickEvent
	variables     []models.PricingVariable
	configs       []models.PricingConfig
	mark          time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		opportunities: make(map[uint64]*models.Opportunity),
		mark:          time.Now().UTC(),
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) InsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	item.ID = uint64(len(s.opportunities) + 1)
	s.opportunities[item.ID] = item
	return nil
}

func (s *stubRepo) InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	return s.InsertOpportunity(ctx, item)
}

func (s *stubRepo) GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	return s.opportunities[id], nil
}

func (s *stubRepo) GetOpportunityForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Opportunity, error) {
	return s.opportunities[id], nil
}

func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	out := make([]models.Opportunity, 0, len(s.opportunities))
	for _, item := range s.opportunities {
		if params.Status != nil && item.Status != *params.Status {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	items, _ := s.ListOpportunities(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	open := models.OpportunityStatusOpen
	return s.ListOpportunities(ctx, repository.ListOpportunitiesParams{Status: &open})
}

func (s *stubRepo) ListOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.Opportunity, error) {
	return nil, nil
}

func (s *stubRepo) UpdateOpportunityPriceTx(ctx context.Context, tx *gorm.DB, id uint64, price decimal.Decimal, breakdown datatypes.JSON) error {
	if item, ok := s.opportunities[id]; ok {
		item.CurrentPrice = price
		item.LastBreakdown = breakdown
	}
	return nil
}

func (s *stubRepo) CloseOpportunity(ctx context.Context, id uint64, now time.Time) (*models.Opportunity, error) {
	item, ok := s.opportunities[id]
	if !ok {
		return nil, nil
	}
	if item.Status != models.OpportunityStatusClosed {
		item.Status = models.OpportunityStatusClosed
		price := item.CurrentPrice
		item.LastPrice = &price
		item.ClosedAt = &now
	}
	return item, nil
}

func (s *stubRepo) CountOpenByPublication(ctx context.Context, publicationID uint64, excludeID uint64) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertPublication(ctx context.Context, item *models.Publication) error {
	return nil
}

func (s *stubRepo) GetPublicationByID(ctx context.Context, id uint64) (*models.Publication, error) {
	return &models.Publication{ID: id, Name: "Test Outlet"}, nil
}

func (s *stubRepo) CountPitchesSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) PitchConversion(ctx context.Context, opportunityID uint64) (int64, int64, error) {
	return 0, 0, nil
}

func (s *stubRepo) InsertEmailClickEvent(ctx context.Context, item *models.EmailClickEvent) error {
	s.clicks = append(s.clicks, *item)
	return nil
}

func (s *stubRepo) CountClickEventsSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	return int64(len(s.clicks)), nil
}

func (s *stubRepo) DeleteClickEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertPriceSnapshotTx(ctx context.Context, tx *gorm.DB, item *models.PriceSnapshot) error {
	item.ID = uint64(len(s.snapshots) + 1)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.snapshots = append(s.snapshots, *item)
	return nil
}

func (s *stubRepo) GetLatestPriceSnapshot(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error) {
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].OpportunityID == opportunityID {
			item := s.snapshots[i]
			return &item, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListPriceSnapshots(ctx context.Context, params repository.ListPriceSnapshotsParams) ([]models.PriceSnapshot, error) {
	out := make([]models.PriceSnapshot, 0)
	for _, item := range s.snapshots {
		if item.OpportunityID != params.OpportunityID {
			continue
		}
		if params.Since != nil && item.CreatedAt.Before(*params.Since) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *stubRepo) ListPricingVariables(ctx context.Context) ([]models.PricingVariable, error) {
	return s.variables, nil
}

func (s *stubRepo) GetPricingVariableByName(ctx context.Context, name string) (*models.PricingVariable, error) {
	for i := range s.variables {
		if s.variables[i].Name == name {
			return &s.variables[i], nil
		}
	}
	return nil, nil
}

func (s *stubRepo) UpsertPricingVariable(ctx context.Context, item *models.PricingVariable) error {
	for i := range s.variables {
		if s.variables[i].Name == item.Name {
			s.variables[i] = *item
			return nil
		}
	}
	s.variables = append(s.variables, *item)
	return nil
}

func (s *stubRepo) ListPricingConfigs(ctx context.Context) ([]models.PricingConfig, error) {
	return s.configs, nil
}

func (s *stubRepo) GetPricingConfigByKey(ctx context.Context, key string) (*models.PricingConfig, error) {
	for i := range s.configs {
		if s.configs[i].Key == key {
			return &s.configs[i], nil
		}
	}
	return nil, nil
}

func (s *stubRepo) UpsertPricingConfig(ctx context.Context, item *models.PricingConfig) error {
	for i := range s.configs {
		if s.configs[i].Key == item.Key {
			s.configs[i] = *item
			return nil
		}
	}
	s.configs = append(s.configs, *item)
	return nil
}

func (s *stubRepo) MaxTuningUpdatedAt(ctx context.Context) (time.Time, error) {
	return s.mark, nil
}
