package db

import (
	"pressmarket/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Publication{},
		&models.Opportunity{},
		&models.Pitch{},
		&models.EmailClickEvent{},
		&models.PriceSnapshot{},
		&models.PricingVariable{},
		&models.PricingConfig{},
	)
}
