package enums

import "fmt"

// ActorRole identifies the kind of user performing an operation.
type ActorRole string

const (
	ActorRoleAdmin    ActorRole = "admin"
	ActorRoleLandlord ActorRole = "landlord"
	ActorRoleTenant   ActorRole = "tenant"
	ActorRoleVendor   ActorRole = "vendor"

	// ActorRoleSystem marks mutations made by background jobs rather than a
	// user. Excluded from validActorRoles so no request token can claim it.
	ActorRoleSystem ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleLandlord,
	ActorRoleTenant,
	ActorRoleVendor,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
