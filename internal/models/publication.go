package models

import "time"

// Publication is the outlet an opportunity runs in. Read-only collaborator
// data; the engine only counts open opportunities per publication.
type Publication struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(200);not null"`
	Slug string `gorm:"type:varchar(200);not null;uniqueIndex"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Publication) TableName() string {
	return "publications"
}
