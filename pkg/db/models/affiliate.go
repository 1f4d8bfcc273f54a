package models

import (
	"time"

	"github.com/google/uuid"
)

// Affiliate is the platform-wide identity of one commission partner.
// Rows are never hard-deleted; deactivation flips IsActive only, so
// earning history keeps a valid owner.
type Affiliate struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	Email     string           `gorm:"column:email;not null;uniqueIndex"`
	PixKey    string           `gorm:"column:pix_key;not null"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	Links     []StoreAffiliate `gorm:"foreignKey:AffiliateID"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
