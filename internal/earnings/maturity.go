package earnings

import "time"

// DefaultMaturityDays is the grace period applied when a store carries
// no configuration of its own.
const DefaultMaturityDays = 7

// ComputeAvailableAt returns the instant a delivered commission becomes
// withdrawable. When the delivery timestamp is unknown the order's
// creation time serves as a conservative upper bound and the earning is
// flagged for reconciliation. The result is stamped once and never
// recomputed when store policy changes later.
func ComputeAvailableAt(deliveredAt *time.Time, orderCreatedAt time.Time, maturityDays int) (time.Time, bool) {
	if maturityDays < 0 {
		maturityDays = DefaultMaturityDays
	}
	grace := time.Duration(maturityDays) * 24 * time.Hour
	if deliveredAt != nil && !deliveredAt.IsZero() {
		return deliveredAt.Add(grace), false
	}
	return orderCreatedAt.Add(grace), true
}
