package enums

import "fmt"

// AffiliateLinkStatus tracks the per-store affiliate relationship.
type AffiliateLinkStatus string

const (
	AffiliateLinkStatusInvited  AffiliateLinkStatus = "invited"
	AffiliateLinkStatusActive   AffiliateLinkStatus = "active"
	AffiliateLinkStatusRejected AffiliateLinkStatus = "rejected"
)

var validAffiliateLinkStatuses = []AffiliateLinkStatus{
	AffiliateLinkStatusInvited,
	AffiliateLinkStatusActive,
	AffiliateLinkStatusRejected,
}

// String implements fmt.Stringer.
func (a AffiliateLinkStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AffiliateLinkStatus.
func (a AffiliateLinkStatus) IsValid() bool {
	for _, candidate := range validAffiliateLinkStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAffiliateLinkStatus converts raw input into an AffiliateLinkStatus.
func ParseAffiliateLinkStatus(value string) (AffiliateLinkStatus, error) {
	for _, candidate := range validAffiliateLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid affiliate link status %q", value)
}
