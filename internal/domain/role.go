package domain

// Role is the role claim carried by a credential.
type Role string

const (
	// RoleNone marks a missing or unreadable role claim.
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsKnown reports whether r is one of the roles the route tree gates on.
func (r Role) IsKnown() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}
