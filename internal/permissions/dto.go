package permissions

import (
	"time"

	"github.com/google/uuid"
)

type CreatePermissionRequest struct {
	Name         string     `json:"name" validate:"required,max=100"`
	Code         string     `json:"code" validate:"required,max=100"`
	ResourceType string     `json:"resourceType" validate:"required,oneof=Menu Button Api File"`
	ResourcePath string     `json:"resourcePath" validate:"omitempty,max=255"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
}

type UpdatePermissionRequest struct {
	Name         string     `json:"name" validate:"omitempty,max=100"`
	Code         string     `json:"code" validate:"omitempty,max=100"`
	ResourceType string     `json:"resourceType" validate:"omitempty,oneof=Menu Button Api File"`
	ResourcePath string     `json:"resourcePath" validate:"omitempty,max=255"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
}

// PermissionNode is the tree-shaped response item. Children is always present
// in the payload, empty for leaves.
type PermissionNode struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Code         string            `json:"code"`
	ResourceType string            `json:"resourceType"`
	ResourcePath string            `json:"resourcePath"`
	ParentID     *uuid.UUID        `json:"parentId,omitempty"`
	Children     []*PermissionNode `json:"children"`
}

// PermissionDetail is the flat single-permission response with the parent
// name resolved.
type PermissionDetail struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	ResourceType string     `json:"resourceType"`
	ResourcePath string     `json:"resourcePath"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
	ParentName   string     `json:"parentName,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
