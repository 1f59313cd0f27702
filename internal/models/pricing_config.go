package models

import (
	"time"

	"gorm.io/datatypes"
)

// PricingConfig stores one global engine tunable (step size, tick interval,
// boost/penalty magnitudes, cooldown) as a JSON number keyed by name.
type PricingConfig struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Key   string         `gorm:"type:varchar(120);not null;uniqueIndex"`
	Value datatypes.JSON `gorm:"type:jsonb;not null"`

	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (PricingConfig) TableName() string {
	return "pricing_configs"
}
