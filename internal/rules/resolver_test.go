package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
)

func activeLink(defaultType enums.CommissionType, defaultValue string, enabled bool) models.StoreAffiliate {
	return models.StoreAffiliate{
		ID:                     uuid.New(),
		StoreID:                uuid.New(),
		AffiliateID:            uuid.New(),
		Status:                 enums.AffiliateLinkStatusActive,
		DefaultCommissionType:  defaultType,
		DefaultCommissionValue: decimal.RequireFromString(defaultValue),
		CommissionEnabled:      enabled,
	}
}

func TestResolvePrecedence(t *testing.T) {
	productID := uuid.New()
	link := activeLink(enums.CommissionTypePercentage, "10", true)
	ruleSet := []models.CommissionRule{
		{
			StoreAffiliateID: link.ID,
			AppliesTo:        enums.RuleAppliesToCategory,
			TargetKey:        "bebidas",
			Type:             enums.CommissionTypePercentage,
			Value:            decimal.RequireFromString("5"),
		},
		{
			StoreAffiliateID: link.ID,
			AppliesTo:        enums.RuleAppliesToProduct,
			TargetKey:        productID.String(),
			Type:             enums.CommissionTypeFixed,
			Value:            decimal.RequireFromString("2"),
		},
	}

	item := OrderItem{
		ProductID: productID,
		Category:  "Bebidas",
		UnitPrice: decimal.RequireFromString("10"),
		Quantity:  2,
	}

	resolved := Resolve(item, link, ruleSet)
	if resolved.Source != enums.CommissionSourceProduct {
		t.Fatalf("expected product rule to win, got %s", resolved.Source)
	}
	amount := CommissionAmount(item, resolved)
	if !amount.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("expected fixed R$4, got %s", amount)
	}

	// Without the product rule the category rule applies.
	resolved = Resolve(item, link, ruleSet[:1])
	if resolved.Source != enums.CommissionSourceCategory {
		t.Fatalf("expected category rule, got %s", resolved.Source)
	}
	amount = CommissionAmount(item, resolved)
	if !amount.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected 5%% of 20 = 1, got %s", amount)
	}

	// Without any rule the default applies.
	resolved = Resolve(item, link, nil)
	if resolved.Source != enums.CommissionSourceDefault {
		t.Fatalf("expected default, got %s", resolved.Source)
	}
	amount = CommissionAmount(item, resolved)
	if !amount.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("expected 10%% of 20 = 2, got %s", amount)
	}
}

func TestResolveDisabledDefaultYieldsNone(t *testing.T) {
	link := activeLink(enums.CommissionTypePercentage, "15", false)
	item := OrderItem{
		ProductID: uuid.New(),
		Category:  "Lanches",
		UnitPrice: decimal.RequireFromString("30"),
		Quantity:  1,
	}

	resolved := Resolve(item, link, nil)
	if resolved.Source != enums.CommissionSourceNone {
		t.Fatalf("expected none, got %s", resolved.Source)
	}
	if !CommissionAmount(item, resolved).IsZero() {
		t.Fatalf("expected zero commission")
	}
}

func TestResolveZeroValueDefaultYieldsNone(t *testing.T) {
	link := activeLink(enums.CommissionTypePercentage, "0", true)
	item := OrderItem{ProductID: uuid.New(), UnitPrice: decimal.RequireFromString("10"), Quantity: 1}

	resolved := Resolve(item, link, nil)
	if resolved.Source != enums.CommissionSourceNone {
		t.Fatalf("expected none for zero default, got %s", resolved.Source)
	}
}

func TestFixedCommissionCappedAtItemValue(t *testing.T) {
	link := activeLink(enums.CommissionTypeFixed, "8", true)
	item := OrderItem{
		ProductID:    uuid.New(),
		UnitPrice:    decimal.RequireFromString("5"),
		Quantity:     2,
		LineDiscount: decimal.RequireFromString("4"),
	}

	resolved := Resolve(item, link, nil)
	amount := CommissionAmount(item, resolved)
	// 8*2=16 exceeds post-discount value 6, so the cap holds.
	if !amount.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected cap at 6, got %s", amount)
	}
}

func TestPercentageAppliesToPostDiscountValue(t *testing.T) {
	link := activeLink(enums.CommissionTypePercentage, "10", true)
	item := OrderItem{
		ProductID:    uuid.New(),
		UnitPrice:    decimal.RequireFromString("50"),
		Quantity:     2,
		LineDiscount: decimal.RequireFromString("20"),
	}

	resolved := Resolve(item, link, nil)
	amount := CommissionAmount(item, resolved)
	if !amount.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("expected 10%% of 80 = 8, got %s", amount)
	}
}

func TestCouponScopeGatesItems(t *testing.T) {
	link := activeLink(enums.CommissionTypePercentage, "10", true)
	covered := OrderItem{
		ProductID: uuid.New(),
		Category:  "Bebidas",
		UnitPrice: decimal.RequireFromString("10"),
		Quantity:  1,
	}
	outside := OrderItem{
		ProductID: uuid.New(),
		Category:  "Sobremesas",
		UnitPrice: decimal.RequireFromString("40"),
		Quantity:  1,
	}
	coupon := &models.Coupon{
		Scope:           enums.CouponScopeCategory,
		ScopeCategories: []string{"Bebidas"},
	}

	total := OrderCommission([]OrderItem{covered, outside}, link, nil, coupon)
	if !total.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected only the covered item to pay, got %s", total)
	}
}

func TestCouponProductScope(t *testing.T) {
	productID := uuid.New()
	coupon := &models.Coupon{
		Scope:          enums.CouponScopeProduct,
		ScopeProductID: &productID,
	}
	if !CouponCoversItem(coupon, OrderItem{ProductID: productID}) {
		t.Fatalf("expected scoped product to be covered")
	}
	if CouponCoversItem(coupon, OrderItem{ProductID: uuid.New()}) {
		t.Fatalf("expected other products to be excluded")
	}
}

func TestItemValueAfterDiscountFloorsAtZero(t *testing.T) {
	item := OrderItem{
		UnitPrice:    decimal.RequireFromString("5"),
		Quantity:     1,
		LineDiscount: decimal.RequireFromString("9"),
	}
	if !ItemValueAfterDiscount(item).IsZero() {
		t.Fatalf("expected floor at zero")
	}
}
