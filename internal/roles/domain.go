package roles

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain errors surfaced by role management.
var (
	ErrNotFound      = fmt.Errorf("role %w", httpx.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("role name already exists: %w", httpx.ErrConflict)
)
