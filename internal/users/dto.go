package users

import (
	"time"

	"github.com/google/uuid"
)

// CreateUserRequest is the payload for registering a new account.
type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=64"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Roles    []string `json:"roles"`
}

// UpdateUserRequest is the payload for updating account details. The password
// is never changed here; ChangePasswordRequest covers that.
type UpdateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	IsActive *bool    `json:"isActive"`
	Roles    []string `json:"roles"`
}

// ChangePasswordRequest carries a password rotation for an account.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// UserResponse is the API representation of an account. The password hash
// never leaves the service.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"isActive"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toResponse(u *User, roleNames []string) UserResponse {
	if roleNames == nil {
		roleNames = []string{}
	}
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		Roles:       roleNames,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
