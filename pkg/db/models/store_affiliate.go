package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// StoreAffiliate binds one affiliate to one store and carries the
// store-level default commission. At most one link exists per
// (store, affiliate) pair.
type StoreAffiliate struct {
	ID                     uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID                uuid.UUID                 `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_store_affiliates_pair"`
	AffiliateID            uuid.UUID                 `gorm:"column:affiliate_id;type:uuid;not null;uniqueIndex:ux_store_affiliates_pair"`
	Status                 enums.AffiliateLinkStatus `gorm:"column:status;type:text;not null;default:'invited'"`
	DefaultCommissionType  enums.CommissionType      `gorm:"column:default_commission_type;type:text;not null;default:'percentage'"`
	DefaultCommissionValue decimal.Decimal           `gorm:"column:default_commission_value;type:decimal(10,2);not null;default:0"`
	CommissionEnabled      bool                      `gorm:"column:commission_enabled;not null;default:true"`
	Store                  *Store                    `gorm:"foreignKey:StoreID"`
	Affiliate              *Affiliate                `gorm:"foreignKey:AffiliateID"`
	Rules                  []CommissionRule          `gorm:"foreignKey:StoreAffiliateID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
