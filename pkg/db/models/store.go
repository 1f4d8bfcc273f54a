package models

import (
	"time"

	"github.com/google/uuid"
)

// Store holds the per-store engine configuration. Catalog and checkout
// data live in the commerce subsystem; the engine only needs the
// maturity grace period and display identity.
type Store struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	MaturityDays int       `gorm:"column:maturity_days;not null;default:7"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
