package rules

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// OrderItem is the engine's view of one purchased line. The order
// subsystem owns the catalog; only the fields commission math needs
// cross the boundary.
type OrderItem struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Category     string          `json:"category"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineDiscount decimal.Decimal `json:"line_discount"`
}

// ResolvedCommission is the outcome of resolving one item against a
// store affiliate's rule set.
type ResolvedCommission struct {
	Type   enums.CommissionType   `json:"type"`
	Value  decimal.Decimal        `json:"value"`
	Source enums.CommissionSource `json:"source"`
}

// CreateRuleInput carries a product or category override for one link.
type CreateRuleInput struct {
	StoreAffiliateID uuid.UUID            `json:"store_affiliate_id" validate:"required"`
	AppliesTo        enums.RuleAppliesTo  `json:"applies_to" validate:"required"`
	TargetKey        string               `json:"target_key" validate:"required"`
	TargetLabel      string               `json:"target_label"`
	Type             enums.CommissionType `json:"type" validate:"required"`
	Value            decimal.Decimal      `json:"value" validate:"required"`
}
