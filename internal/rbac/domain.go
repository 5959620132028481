// Package rbac implements role-permission and user-role bindings plus the
// authorization middleware built on top of them.
package rbac

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// RolePermission ties a permission to a role. Pure association: created and
// destroyed in bulk by assignment, never updated.
type RolePermission struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	CreatedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    uuid.UUID
	RoleID    uuid.UUID
	CreatedAt time.Time
}

// Domain errors surfaced by binding operations.
var (
	ErrRoleNotFound         = fmt.Errorf("role %w", httpx.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", httpx.ErrNotFound)
	ErrPermissionNotFound   = fmt.Errorf("permission %w", httpx.ErrNotFound)
	ErrBindingNotFound      = fmt.Errorf("role does not hold this permission: %w", httpx.ErrNotFound)
	ErrInvalidPermissionIDs = fmt.Errorf("one or more permission ids do not exist: %w", httpx.ErrValidation)
	ErrUnknownRoleNames     = fmt.Errorf("one or more role names do not exist: %w", httpx.ErrValidation)
)
