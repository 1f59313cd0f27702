package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pressmarket/internal/models"
)

// Repository is the storage surface of the pricing engine. The engine is the
// sole writer of opportunity prices and the audit trail; pitches and
// publications are read-only collaborator data.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Opportunities.
	InsertOpportunity(ctx context.Context, item *models.Opportunity) error
	InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error
	GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error)
	GetOpportunityForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, params ListOpportunitiesParams) ([]models.Opportunity, error)
	CountOpportunities(ctx context.Context, params ListOpportunitiesParams) (int64, error)
	ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error)
	ListOpenPastDeadline(ctx context.Context, now time.Time, limit int) ([]models.Opportunity, error)
	UpdateOpportunityPriceTx(ctx context.Context, tx *gorm.DB, id uint64, price decimal.Decimal, breakdown datatypes.JSON) error
	CloseOpportunity(ctx context.Context, id uint64, now time.Time) (*models.Opportunity, error)
	CountOpenByPublication(ctx context.Context, publicationID uint64, excludeID uint64) (int64, error)

	// Publications (collaborator data).
	InsertPublication(ctx context.Context, item *models.Publication) error
	GetPublicationByID(ctx context.Context, id uint64) (*models.Publication, error)

	// Pitches (read-only signal source).
	CountPitchesSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error)
	PitchConversion(ctx context.Context, opportunityID uint64) (submitted int64, accepted int64, err error)

	// Email click events.
	InsertEmailClickEvent(ctx context.Context, item *models.EmailClickEvent) error
	CountClickEventsSince(ctx context.Context, opportunityID uint64, since time.Time) (int64, error)
	DeleteClickEventsBefore(ctx context.Context, before time.Time) (int64, error)

	// Audit trail. Snapshots are append-only; there is deliberately no update
	// or delete method.
	InsertPriceSnapshotTx(ctx context.Context, tx *gorm.DB, item *models.PriceSnapshot) error
	GetLatestPriceSnapshot(ctx context.Context, opportunityID uint64) (*models.PriceSnapshot, error)
	ListPriceSnapshots(ctx context.Context, params ListPriceSnapshotsParams) ([]models.PriceSnapshot, error)

	// Operator tunables.
	ListPricingVariables(ctx context.Context) ([]models.PricingVariable, error)
	GetPricingVariableByName(ctx context.Context, name string) (*models.PricingVariable, error)
	UpsertPricingVariable(ctx context.Context, item *models.PricingVariable) error
	ListPricingConfigs(ctx context.Context) ([]models.PricingConfig, error)
	GetPricingConfigByKey(ctx context.Context, key string) (*models.PricingConfig, error)
	UpsertPricingConfig(ctx context.Context, item *models.PricingConfig) error
	// MaxTuningUpdatedAt is the reload watermark: the newest updated_at across
	// both tunable tables.
	MaxTuningUpdatedAt(ctx context.Context) (time.Time, error)
}

type ListOpportunitiesParams struct {
	Limit         int
	Offset        int
	Status        *string
	Tier          *int
	PublicationID *uint64
	OrderBy       string
	Asc           *bool
}

type ListPriceSnapshotsParams struct {
	OpportunityID uint64
	Since         *time.Time
	Until         *time.Time
	Limit         int
	Asc           bool
}
