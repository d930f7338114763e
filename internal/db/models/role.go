package models

// Role governs route access and admin capabilities.
// It is always one of the three predefined values; RoleGuest whenever no
// resolved identity exists or no matching profile is found.
type Role string

const (
	// RoleGuest is the default role for unauthenticated visitors.
	RoleGuest Role = "guest"
	// RoleUser is a signed-in account with a matching profile.
	RoleUser Role = "user"
	// RoleAdmin may manage accounts and broadcast emails.
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// In reports whether the role is a member of the allowed list.
// Membership is case-sensitive.
func (r Role) In(allowed []Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}

	return false
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}
