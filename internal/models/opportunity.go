package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OpportunityStatusOpen   = "open"
	OpportunityStatusClosed = "closed"
)

// Opportunity is a press request experts bid on. The pricing engine owns
// current_price, last_price and last_breakdown; every other column belongs to
// the marketplace application and is read-only here.
type Opportunity struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Title         string `gorm:"type:text;not null"`
	Tier          int    `gorm:"not null;index"`
	PublicationID uint64 `gorm:"not null;index"`
	Publication   Publication

	Status string `gorm:"type:varchar(20);not null;index;default:'open'"`

	CurrentPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	// LastPrice is written exactly once, at close, and frozen afterwards.
	LastPrice     *decimal.Decimal `gorm:"type:numeric(12,2)"`
	LastBreakdown datatypes.JSON   `gorm:"type:jsonb"`

	Deadline time.Time  `gorm:"type:timestamptz;not null;index"`
	ClosedAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}
