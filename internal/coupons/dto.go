package coupons

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// RegisterCouponInput creates a coupon in a store's attribution registry.
type RegisterCouponInput struct {
	StoreID         uuid.UUID            `json:"store_id" validate:"required"`
	Code            string               `json:"code" validate:"required"`
	DiscountType    enums.CommissionType `json:"discount_type" validate:"required"`
	DiscountValue   decimal.Decimal      `json:"discount_value" validate:"required"`
	Scope           enums.CouponScope    `json:"scope"`
	ScopeProductID  *uuid.UUID           `json:"scope_product_id,omitempty"`
	ScopeCategories []string             `json:"scope_categories,omitempty"`
}

// LinkAffiliateInput attaches a coupon to a store affiliate link.
type LinkAffiliateInput struct {
	CouponID         uuid.UUID `json:"coupon_id" validate:"required"`
	StoreAffiliateID uuid.UUID `json:"store_affiliate_id" validate:"required"`
}

// Attribution is the worker's lookup result: the coupon plus the link it
// currently credits.
type Attribution struct {
	Coupon           *CouponView `json:"coupon"`
	StoreAffiliateID uuid.UUID   `json:"store_affiliate_id"`
}

// CouponView is the read shape returned by lookups.
type CouponView struct {
	ID              uuid.UUID            `json:"id"`
	StoreID         uuid.UUID            `json:"store_id"`
	Code            string               `json:"code"`
	DiscountType    enums.CommissionType `json:"discount_type"`
	DiscountValue   decimal.Decimal      `json:"discount_value"`
	Scope           enums.CouponScope    `json:"scope"`
	ScopeProductID  *uuid.UUID           `json:"scope_product_id,omitempty"`
	ScopeCategories []string             `json:"scope_categories,omitempty"`
}
