package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	SnapshotSourceSeed   = "seed"
	SnapshotSourceTick   = "tick"
	SnapshotSourceEvent  = "event"
	SnapshotSourceManual = "manual"
)

// PriceSnapshot is one append-only audit row per committed price: the price
// plus the full signal/weight breakdown that produced it. Rows are never
// updated or deleted; they form the time series behind the trend endpoint.
type PriceSnapshot struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	OpportunityID uint64          `gorm:"not null;index:idx_snapshots_opp_created"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Breakdown     datatypes.JSON  `gorm:"type:jsonb;not null"`

	Source  string `gorm:"type:varchar(20);not null;index"`
	BatchID string `gorm:"type:varchar(40);index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index:idx_snapshots_opp_created"`
}

func (PriceSnapshot) TableName() string {
	return "price_snapshots"
}
