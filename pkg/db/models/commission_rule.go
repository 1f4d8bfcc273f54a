package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// CommissionRule overrides the link's default commission for one product
// or one category. TargetKey is the product id or the normalized category
// name; the unique index makes "replace, never accumulate" a database
// guarantee as well as a service rule.
type CommissionRule struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreAffiliateID uuid.UUID            `gorm:"column:store_affiliate_id;type:uuid;not null;uniqueIndex:ux_commission_rules_target"`
	AppliesTo        enums.RuleAppliesTo  `gorm:"column:applies_to;type:text;not null;uniqueIndex:ux_commission_rules_target"`
	TargetKey        string               `gorm:"column:target_key;not null;uniqueIndex:ux_commission_rules_target"`
	TargetLabel      string               `gorm:"column:target_label;not null"`
	Type             enums.CommissionType `gorm:"column:type;type:text;not null"`
	Value            decimal.Decimal      `gorm:"column:value;type:decimal(10,2);not null"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
