package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the uuid primary key and timestamps shared by every table.
// A CreatedAt set by the caller is kept, which chat relies on for ordering.
type Base struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a random id to rows inserted without one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
