package rules

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// NormalizeTargetKey canonicalizes category names so "Bebidas" and
// " bebidas " address the same rule slot. Product ids pass through
// lowercased.
func NormalizeTargetKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ItemValueAfterDiscount returns unit_price*quantity minus the line
// discount, floored at zero.
func ItemValueAfterDiscount(item OrderItem) decimal.Decimal {
	value := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.LineDiscount)
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// CouponCoversItem reports whether the attributing coupon's scope
// reaches the item. A nil coupon means direct attribution and covers
// everything.
func CouponCoversItem(coupon *models.Coupon, item OrderItem) bool {
	if coupon == nil {
		return true
	}
	switch coupon.Scope {
	case enums.CouponScopeAll:
		return true
	case enums.CouponScopeProduct:
		return coupon.ScopeProductID != nil && *coupon.ScopeProductID == item.ProductID
	case enums.CouponScopeCategory:
		normalized := NormalizeTargetKey(item.Category)
		for _, category := range coupon.ScopeCategories {
			if NormalizeTargetKey(category) == normalized {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Resolve picks the commission that applies to one item: product rule,
// then category rule, then the link's enabled default, then none.
// Resolution never errors; absence of a rule yields zero.
func Resolve(item OrderItem, link models.StoreAffiliate, ruleSet []models.CommissionRule) ResolvedCommission {
	productKey := NormalizeTargetKey(item.ProductID.String())
	categoryKey := NormalizeTargetKey(item.Category)

	var categoryRule *models.CommissionRule
	for i := range ruleSet {
		rule := &ruleSet[i]
		switch rule.AppliesTo {
		case enums.RuleAppliesToProduct:
			if NormalizeTargetKey(rule.TargetKey) == productKey {
				return ResolvedCommission{Type: rule.Type, Value: rule.Value, Source: enums.CommissionSourceProduct}
			}
		case enums.RuleAppliesToCategory:
			if categoryRule == nil && categoryKey != "" && NormalizeTargetKey(rule.TargetKey) == categoryKey {
				categoryRule = rule
			}
		}
	}
	if categoryRule != nil {
		return ResolvedCommission{Type: categoryRule.Type, Value: categoryRule.Value, Source: enums.CommissionSourceCategory}
	}

	if link.CommissionEnabled && link.DefaultCommissionValue.IsPositive() {
		return ResolvedCommission{
			Type:   link.DefaultCommissionType,
			Value:  link.DefaultCommissionValue,
			Source: enums.CommissionSourceDefault,
		}
	}
	return ResolvedCommission{Type: enums.CommissionTypePercentage, Value: decimal.Zero, Source: enums.CommissionSourceNone}
}

// CommissionAmount computes the money owed for one item under the
// resolved commission. Percentage applies to the post-discount value;
// fixed pays value per unit, capped at the post-discount value so the
// commission never exceeds what the customer paid.
func CommissionAmount(item OrderItem, resolved ResolvedCommission) decimal.Decimal {
	if resolved.Source == enums.CommissionSourceNone || item.Quantity <= 0 {
		return decimal.Zero
	}
	itemValue := ItemValueAfterDiscount(item)
	if itemValue.IsZero() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch resolved.Type {
	case enums.CommissionTypePercentage:
		amount = resolved.Value.Div(oneHundred).Mul(itemValue)
	case enums.CommissionTypeFixed:
		amount = resolved.Value.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if amount.GreaterThan(itemValue) {
			amount = itemValue
		}
	default:
		return decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

// OrderCommission sums the commission over all items the attribution
// path covers. Items outside the coupon's scope contribute zero even
// when a matching rule exists.
func OrderCommission(items []OrderItem, link models.StoreAffiliate, ruleSet []models.CommissionRule, coupon *models.Coupon) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if !CouponCoversItem(coupon, item) {
			continue
		}
		resolved := Resolve(item, link, ruleSet)
		total = total.Add(CommissionAmount(item, resolved))
	}
	return total.Round(2)
}
