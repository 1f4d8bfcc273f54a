package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the canonical order lifecycle as seen by the commission
// engine. Upstream storefronts report statuses in mixed locales, so every
// inbound value must go through ParseOrderStatus.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Legacy storefronts emit pt-BR statuses.
var orderStatusAliases = map[string]OrderStatus{
	"criado":      OrderStatusCreated,
	"processando": OrderStatusProcessing,
	"enviado":     OrderStatusShipped,
	"entregue":    OrderStatusDelivered,
	"cancelado":   OrderStatusCancelled,
	"canceled":    OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsDelivered is the single delivery predicate used across the engine.
func (o OrderStatus) IsDelivered() bool {
	return o == OrderStatusDelivered
}

// IsCancelled is the single cancellation predicate used across the engine.
func (o OrderStatus) IsCancelled() bool {
	return o == OrderStatusCancelled
}

// ParseOrderStatus converts raw storefront input into an OrderStatus,
// normalizing legacy locale aliases.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := orderStatusAliases[normalized]; ok {
		return alias, nil
	}
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
