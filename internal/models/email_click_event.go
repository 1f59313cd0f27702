package models

import "time"

// EmailClickEvent is a thin ingestion record written by the email webhook and
// read by the signal collector. Pruned by cron once it ages past the trailing
// engagement window.
type EmailClickEvent struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	OpportunityID   uint64 `gorm:"not null;index:idx_clicks_opp_clicked"`
	ProviderEventID string `gorm:"type:varchar(120);index"`

	ClickedAt time.Time `gorm:"type:timestamptz;not null;index:idx_clicks_opp_clicked"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (EmailClickEvent) TableName() string {
	return "email_click_events"
}
