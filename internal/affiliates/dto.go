package affiliates

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// CreateAffiliateInput registers a new commission partner.
type CreateAffiliateInput struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	PixKey string `json:"pix_key" validate:"required"`
}

// InviteInput creates an invited link between a store and an affiliate.
type InviteInput struct {
	StoreID                uuid.UUID            `json:"store_id" validate:"required"`
	AffiliateID            uuid.UUID            `json:"affiliate_id" validate:"required"`
	DefaultCommissionType  enums.CommissionType `json:"default_commission_type"`
	DefaultCommissionValue decimal.Decimal      `json:"default_commission_value"`
}

// UpdateDefaultCommissionInput changes the link-level default. Existing
// earnings are unaffected; only future resolutions see the new value.
type UpdateDefaultCommissionInput struct {
	StoreAffiliateID  uuid.UUID             `json:"store_affiliate_id" validate:"required"`
	Type              *enums.CommissionType `json:"type,omitempty"`
	Value             *decimal.Decimal      `json:"value,omitempty"`
	CommissionEnabled *bool                 `json:"commission_enabled,omitempty"`
}
