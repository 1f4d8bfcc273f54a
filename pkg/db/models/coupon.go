package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// Coupon is the attribution vehicle: an order carrying the coupon's code
// credits the linked affiliate. Scope limits which items the coupon (and
// therefore the commission) applies to.
type Coupon struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID            `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_coupons_store_code"`
	Code            string               `gorm:"column:code;not null;uniqueIndex:ux_coupons_store_code"`
	DiscountType    enums.CommissionType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue   decimal.Decimal      `gorm:"column:discount_value;type:decimal(10,2);not null"`
	Scope           enums.CouponScope    `gorm:"column:scope;type:text;not null;default:'all'"`
	ScopeProductID  *uuid.UUID           `gorm:"column:scope_product_id;type:uuid"`
	ScopeCategories pq.StringArray       `gorm:"column:scope_categories;type:text[]"`
	// Single-link column kept for storefronts that predate the junction
	// table. New links go through coupon_affiliates.
	LegacyStoreAffiliateID *uuid.UUID        `gorm:"column:legacy_store_affiliate_id;type:uuid"`
	Affiliates             []CouponAffiliate `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponAffiliate links a coupon to a store affiliate. Once any earning is
// attributed through the link it becomes permanent.
type CouponAffiliate struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID         uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;uniqueIndex:ux_coupon_affiliates_pair"`
	StoreAffiliateID uuid.UUID `gorm:"column:store_affiliate_id;type:uuid;not null;uniqueIndex:ux_coupon_affiliates_pair"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
