package models

import (
	"time"

	"circle/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. Rows are hard-deleted: a
// removed transaction leg must not linger where a sibling lookup could find it.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// EnsureID assigns a UUIDv7 when the record has none yet. Stores that bypass
// GORM hooks call it directly.
func (b *Base) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.New()
	}
}
