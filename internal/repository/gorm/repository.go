package gormrepository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pressmarket/internal/models"
	"pressmarket/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Opportunities ----------------------------------------------------------

func (s *Store) InsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	if s == nil || tx == nil || item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Opportunity
	err := s.db.WithContext(ctx).Model(&models.Opportunity{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetOpportunityForUpdateTx reloads the row inside the caller's transaction
// with a row lock, so the commit path can recheck status right before writing.
func (s *Store) GetOpportunityForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Opportunity, error) {
	if s == nil || tx == nil || id == 0 {
		return nil, nil
	}
	var item models.Opportunity
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := opportunityQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Opportunity
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := opportunityQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func opportunityQuery(db *gorm.DB, params repository.ListOpportunitiesParams) *gorm.DB {
	query := db.Model(&models.Opportunity{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Tier != nil && *params.Tier > 0 {
		query = query.Where("tier = ?", *params.Tier)
	}
	if params.PublicationID != nil && *params.PublicationID > 0 {
		query = query.Where("publication_id = ?", *params.PublicationID)
	}
	return query
}

func (s *Store) ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Opportunity
	if err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("status = ?", models.OpportunityStatusOpen).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	limit = normalizeLimit(limit, 200)
	var items []models.Opportunity
	if err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("status = ?", models.OpportunityStatusOpen).
		Where("deadline < ?", now).
		Order("deadline asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateOpportunityPriceTx(ctx context.Context, tx *gorm.DB, id uint64, price decimal.Decimal, breakdown datatypes.JSON) error {
	if s == nil || tx == nil || id == 0 {
		return nil
	}
	updates := map[string]any{
		"current_price": price,
		"updated_at":    time.Now().UTC(),
	}
	if len(breakdown) > 0 {
		updates["last_breakdown"] = breakdown
	}
	return tx.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// CloseOpportunity freezes the price: status flips to closed and last_price is
// copied from current_price inside one transaction. Idempotent; closing an
// already-closed opportunity returns the row unchanged.
func (s *Store) CloseOpportunity(ctx context.Context, id uint64, now time.Time) (*models.Opportunity, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var out *models.Opportunity
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		item, err := s.GetOpportunityForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		if item.Status == models.OpportunityStatusClosed {
			out = item
			return nil
		}
		frozen := item.CurrentPrice
		updates := map[string]any{
			"status":     models.OpportunityStatusClosed,
			"last_price": frozen,
			"closed_at":  now,
			"updated_at": now,
		}
		if err := tx.WithContext(ctx).Model(&models.Opportunity{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		item.Status = models.OpportunityStatusClosed
		item.LastPrice = &frozen
		item.ClosedAt = &now
		out = item
		return nil
	})
	return out, err
}

func (s *Store) CountOpenByPublication(ctx context.Context, publicationID uint64, excludeID uint64) (int64, error) {
	if s == nil || s.db == nil || publicationID == 0 {
		return 0, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("publication_id = ?", publicationID).
		Where("status = ?", models.OpportunityStatusOpen)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- Publications -----------------------------------------------------------

func (s *Store) InsertPublication(ctx context.Context, item *models.Publication) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetPublicationByID(ctx context.Context, id uint64) (*models.Publication, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Publication
	err := s.db.WithContext(ctx).Model(&models.Publication{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- Pitches ----------------------------------------------------------------

func (s *Store) CountPitchesSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	if s == nil || s.db == nil || opportunityID == 0 {
		return 0, nil
	}
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&models.Pitch{}).
		Where("opportunity_id = ?", opportunityID).
		Where("status <> ?", models.PitchStatusDraft).
		Where("created_at >= ?", since).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) PitchConversion(ctx context.Context, opportunityID uint64) (int64, int64, error) {
	if s == nil || s.db == nil || opportunityID == 0 {
		return 0, 0, nil
	}
	var submitted int64
	if err := s.db.WithContext(ctx).
		Model(&models.Pitch{}).
		Where("opportunity_id = ?", opportunityID).
		Where("status <> ?", models.PitchStatusDraft).
		Count(&submitted).Error; err != nil {
		return 0, 0, err
	}
	var accepted int64
	if err := s.db.WithContext(ctx).
		Model(&models.Pitch{}).
		Where("opportunity_id = ?", opportunityID).
		Where("status = ?", models.PitchStatusAccepted).
		Count(&accepted).Error; err != nil {
		return 0, 0, err
	}
	return submitted, accepted, nil
}

// --- Email click events -----------------------------------------------------

func (s *Store) InsertEmailClickEvent(ctx context.Context, item *models.EmailClickEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) CountClickEventsSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error) {
	if s == nil || s.db == nil || opportunityID == 0 {
		return 0, nil
	}
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&models.EmailClickEvent{}).
		Where("opportunity_id = ?", opportunityID).
		Where("clicked_at >= ?", since).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) DeleteClickEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil || before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("clicked_at < ?", before).
		Delete(&models.EmailClickEvent{})
	return res.RowsAffected, res.Error
}

// --- Audit trail ------------------------------------------------------------

func (s *Store) InsertPriceSnapshotTx(ctx context.Context, tx *gorm.DB, item *models.PriceSnapshot) error {
	if s == nil || tx == nil || item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLatestPriceSnapshot(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error) {
	if s == nil || s.db == nil || opportunityID == 0 {
		return nil, nil
	}
	var item models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Model(&models.PriceSnapshot{}).
		Where("opportunity_id = ?", opportunityID).
		Order("created_at desc").
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPriceSnapshots(ctx context.Context, params repository.ListPriceSnapshotsParams) ([]models.PriceSnapshot, error) {
	if s == nil || s.db == nil || params.OpportunityID == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.PriceSnapshot{}).
		Where("opportunity_id = ?", params.OpportunityID)
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("created_at <= ?", *params.Until)
	}
	direction := "desc"
	if params.Asc {
		direction = "asc"
	}
	limit := normalizeLimit(params.Limit, 500)
	var items []models.PriceSnapshot
	if err := query.Order("created_at " + direction).Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Operator tunables ------------------------------------------------------

func (s *Store) ListPricingVariables(ctx context.Context) ([]models.PricingVariable, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PricingVariable
	if err := s.db.WithContext(ctx).
		Model(&models.PricingVariable{}).
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetPricingVariableByName(ctx context.Context, name string) (*models.PricingVariable, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var item models.PricingVariable
	err := s.db.WithContext(ctx).Model(&models.PricingVariable{}).Where("name = ?", name).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertPricingVariable(ctx context.Context, item *models.PricingVariable) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"weight",
			"transform",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListPricingConfigs(ctx context.Context) ([]models.PricingConfig, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PricingConfig
	if err := s.db.WithContext(ctx).
		Model(&models.PricingConfig{}).
		Order("key asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetPricingConfigByKey(ctx context.Context, key string) (*models.PricingConfig, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.PricingConfig
	err := s.db.WithContext(ctx).Model(&models.PricingConfig{}).Where("key = ?", key).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertPricingConfig(ctx context.Context, item *models.PricingConfig) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) MaxTuningUpdatedAt(ctx context.Context) (time.Time, error) {
	if s == nil || s.db == nil {
		return time.Time{}, nil
	}
	var varMax, cfgMax *time.Time
	if err := s.db.WithContext(ctx).
		Model(&models.PricingVariable{}).
		Select("MAX(updated_at)").
		Scan(&varMax).Error; err != nil {
		return time.Time{}, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.PricingConfig{}).
		Select("MAX(updated_at)").
		Scan(&cfgMax).Error; err != nil {
		return time.Time{}, err
	}
	out := time.Time{}
	if varMax != nil && varMax.After(out) {
		out = *varMax
	}
	if cfgMax != nil && cfgMax.After(out) {
		out = *cfgMax
	}
	return out, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
