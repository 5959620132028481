package permissions

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// ResourceType classifies what a permission protects.
type ResourceType int16

const (
	ResourceMenu ResourceType = iota + 1
	ResourceButton
	ResourceAPI
	ResourceFile
)

var resourceTypeNames = map[ResourceType]string{
	ResourceMenu:   "Menu",
	ResourceButton: "Button",
	ResourceAPI:    "Api",
	ResourceFile:   "File",
}

func (t ResourceType) String() string {
	if name, ok := resourceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ResourceType(%d)", int16(t))
}

// ParseResourceType maps the wire name to a ResourceType.
func ParseResourceType(name string) (ResourceType, error) {
	for t, n := range resourceTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown resource type %q: %w", name, httpx.ErrValidation)
}

// Permission is a node in the permission forest. Root permissions have a nil
// ParentID.
type Permission struct {
	ID           uuid.UUID
	Name         string
	Code         string
	ResourceType ResourceType
	ResourcePath string
	ParentID     *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Domain errors surfaced by the permission store.
var (
	ErrNotFound       = fmt.Errorf("permission %w", httpx.ErrNotFound)
	ErrDuplicateCode  = fmt.Errorf("permission code already exists: %w", httpx.ErrConflict)
	ErrParentNotFound = fmt.Errorf("parent permission does not exist: %w", httpx.ErrValidation)
	ErrHasChildren    = fmt.Errorf("permission has child permissions: %w", httpx.ErrValidation)
	ErrCyclicParent   = fmt.Errorf("permission cannot be its own ancestor: %w", httpx.ErrValidation)
)
