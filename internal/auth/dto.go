package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/users"
)

// LoginRequest carries credentials. Login accepts a username or an email.
type LoginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// RefreshRequest presents a refresh token for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest presents the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ValidateRequest presents an access token for a liveness check.
type ValidateRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserSummary is the identity block embedded in token responses.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
}

// LoginResponse returns a fresh token pair.
type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         UserSummary `json:"user"`
}

// ValidateResponse reports whether a token is good and, when it is, the
// identity behind it.
type ValidateResponse struct {
	Valid bool         `json:"valid"`
	User  *UserSummary `json:"user,omitempty"`
}

func toLoginResponse(s *Session) LoginResponse {
	return LoginResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User:         toSummary(s.User, s.Roles),
	}
}

func toSummary(u *users.User, roleNames []string) UserSummary {
	if roleNames == nil {
		roleNames = []string{}
	}
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    roleNames,
	}
}
