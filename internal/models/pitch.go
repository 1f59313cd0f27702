package models

import "time"

const (
	PitchStatusDraft     = "draft"
	PitchStatusSubmitted = "submitted"
	PitchStatusAccepted  = "accepted"
	PitchStatusRejected  = "rejected"
)

// Pitch is an expert's submission against an opportunity. Owned by the
// marketplace application; the engine reads counts and conversion ratios only.
type Pitch struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	OpportunityID uint64 `gorm:"not null;index"`
	Status        string `gorm:"type:varchar(20);not null;index;default:'draft'"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Pitch) TableName() string {
	return "pitches"
}
