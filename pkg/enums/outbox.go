package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateEarning           OutboxAggregateType = "affiliate_earning"
	AggregateWithdrawalRequest OutboxAggregateType = "withdrawal_request"
	AggregateStoreAffiliate    OutboxAggregateType = "store_affiliate"
	AggregateCoupon            OutboxAggregateType = "coupon"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEarning,
	AggregateWithdrawalRequest,
	AggregateStoreAffiliate,
	AggregateCoupon,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventEarningRecorded        OutboxEventType = "earning_recorded"
	EventEarningStatusChanged   OutboxEventType = "earning_status_changed"
	EventEarningMatured         OutboxEventType = "earning_matured"
	EventWithdrawalRequested    OutboxEventType = "withdrawal_requested"
	EventWithdrawalSettled      OutboxEventType = "withdrawal_settled"
	EventWithdrawalRejected     OutboxEventType = "withdrawal_rejected"
	EventAffiliateLinkActivated OutboxEventType = "affiliate_link_activated"
	EventCouponLinked           OutboxEventType = "coupon_linked"
)

var validEventTypes = []OutboxEventType{
	EventEarningRecorded,
	EventEarningStatusChanged,
	EventEarningMatured,
	EventWithdrawalRequested,
	EventWithdrawalSettled,
	EventWithdrawalRejected,
	EventAffiliateLinkActivated,
	EventCouponLinked,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
