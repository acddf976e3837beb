package dto

import "github.com/spec-kit/villa-web/internal/domain"

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// SessionResponse describes the caller's auth state to JSON clients.
type SessionResponse struct {
	LoggedIn bool        `json:"logged_in"`
	Role     domain.Role `json:"role,omitempty"`
	Landing  string      `json:"landing"`
}
