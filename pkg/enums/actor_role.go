package enums

import "fmt"

// ActorRole identifies who is calling the API.
type ActorRole string

const (
	RoleAdmin     ActorRole = "admin"
	RoleMerchant  ActorRole = "merchant"
	RoleAffiliate ActorRole = "affiliate"
)

var validActorRoles = []ActorRole{
	RoleAdmin,
	RoleMerchant,
	RoleAffiliate,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the role is a known actor role.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
