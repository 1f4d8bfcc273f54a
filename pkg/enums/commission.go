package enums

import "fmt"

// CommissionType distinguishes percentage commissions from fixed
// per-unit amounts.
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
)

// String implements fmt.Stringer.
func (c CommissionType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommissionType.
func (c CommissionType) IsValid() bool {
	return c == CommissionTypePercentage || c == CommissionTypeFixed
}

// ParseCommissionType converts raw input into a CommissionType.
func ParseCommissionType(value string) (CommissionType, error) {
	switch CommissionType(value) {
	case CommissionTypePercentage:
		return CommissionTypePercentage, nil
	case CommissionTypeFixed:
		return CommissionTypeFixed, nil
	default:
		return "", fmt.Errorf("invalid commission type %q", value)
	}
}

// RuleAppliesTo is the target kind of a commission rule.
type RuleAppliesTo string

const (
	RuleAppliesToProduct  RuleAppliesTo = "product"
	RuleAppliesToCategory RuleAppliesTo = "category"
)

// String implements fmt.Stringer.
func (r RuleAppliesTo) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RuleAppliesTo.
func (r RuleAppliesTo) IsValid() bool {
	return r == RuleAppliesToProduct || r == RuleAppliesToCategory
}

// ParseRuleAppliesTo converts raw input into a RuleAppliesTo.
func ParseRuleAppliesTo(value string) (RuleAppliesTo, error) {
	switch RuleAppliesTo(value) {
	case RuleAppliesToProduct:
		return RuleAppliesToProduct, nil
	case RuleAppliesToCategory:
		return RuleAppliesToCategory, nil
	default:
		return "", fmt.Errorf("invalid rule target %q", value)
	}
}

// CommissionSource records which precedence tier resolved an item.
type CommissionSource string

const (
	CommissionSourceProduct  CommissionSource = "specific_product"
	CommissionSourceCategory CommissionSource = "category"
	CommissionSourceDefault  CommissionSource = "default"
	CommissionSourceNone     CommissionSource = "none"
)

// String implements fmt.Stringer.
func (c CommissionSource) String() string {
	return string(c)
}
