package domain

// UserRole is the role record the villa API attaches to a user.
type UserRole struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Description string `json:"description"`
}

// User is the signed-in account as returned by the profile endpoint.
type User struct {
	ID        int      `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	IsActive  bool     `json:"is_active"`
	RoleID    int      `json:"role_id"`
	Role      UserRole `json:"role"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"update_at"`
}

// AccessRole maps the account's role record onto the guard roles.
func (u User) AccessRole() Role {
	return Role(u.Role.Name)
}
