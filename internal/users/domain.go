package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// User represents a portal account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrNotFound signals the user does not exist.
	ErrNotFound = fmt.Errorf("user %w", httpx.ErrNotFound)
	// ErrDuplicateUsername signals the username is already taken.
	ErrDuplicateUsername = fmt.Errorf("username already in use: %w", httpx.ErrConflict)
	// ErrDuplicateEmail signals the email is already taken.
	ErrDuplicateEmail = fmt.Errorf("email already in use: %w", httpx.ErrConflict)
	// ErrWrongPassword signals a failed current-password check.
	ErrWrongPassword = fmt.Errorf("current password does not match: %w", httpx.ErrValidation)
)
