package models

import "time"

// PricingVariable is an operator-tunable signal weight plus an optional
// nonlinear transform tag. For the absolute dollar bound variables
// (price_floor, price_ceiling) the weight column holds the dollar amount.
type PricingVariable struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Weight    float64 `gorm:"not null"`
	Transform string  `gorm:"type:varchar(30)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (PricingVariable) TableName() string {
	return "pricing_variables"
}
