package enums

import "fmt"

// EarningStatus tracks the lifecycle of one affiliate earning.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusApproved  EarningStatus = "approved"
	EarningStatusPaid      EarningStatus = "paid"
	EarningStatusCancelled EarningStatus = "cancelled"
)

var validEarningStatuses = []EarningStatus{
	EarningStatusPending,
	EarningStatusApproved,
	EarningStatusPaid,
	EarningStatusCancelled,
}

// String implements fmt.Stringer.
func (e EarningStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EarningStatus.
func (e EarningStatus) IsValid() bool {
	for _, candidate := range validEarningStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (e EarningStatus) IsTerminal() bool {
	return e == EarningStatusPaid || e == EarningStatusCancelled
}

// CanTransitionTo enforces the manual override state machine:
// pending -> approved -> paid, and any non-terminal state -> cancelled.
func (e EarningStatus) CanTransitionTo(target EarningStatus) bool {
	if e == target {
		return false
	}
	switch e {
	case EarningStatusPending:
		return target == EarningStatusApproved || target == EarningStatusPaid || target == EarningStatusCancelled
	case EarningStatusApproved:
		return target == EarningStatusPaid || target == EarningStatusCancelled
	default:
		return false
	}
}

// ParseEarningStatus converts raw input into an EarningStatus.
func ParseEarningStatus(value string) (EarningStatus, error) {
	for _, candidate := range validEarningStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earning status %q", value)
}
