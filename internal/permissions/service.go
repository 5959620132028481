package permissions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Service implements the permission store rules: unique codes, resolvable
// parents, restrict-delete, and deterministic forest reads.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new permission node.
func (s *Service) Create(ctx context.Context, req CreatePermissionRequest) (*Permission, error) {
	resourceType, err := ParseResourceType(req.ResourceType)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrDuplicateCode
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if req.ParentID != nil {
		exists, err := s.repo.Exists(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrParentNotFound
		}
	}

	p := &Permission{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Code:         strings.TrimSpace(req.Code),
		ResourceType: resourceType,
		ResourcePath: req.ResourcePath,
		ParentID:     req.ParentID,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the provided fields to an existing permission. Name, code
// and resource type are only changed when non-empty; resource path and
// parent are replaced outright.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePermissionRequest) (*Permission, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != "" {
		other, err := s.repo.GetByCode(ctx, req.Code)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, ErrDuplicateCode
		}
		p.Code = strings.TrimSpace(req.Code)
	}
	if req.Name != "" {
		p.Name = strings.TrimSpace(req.Name)
	}
	if req.ResourceType != "" {
		resourceType, err := ParseResourceType(req.ResourceType)
		if err != nil {
			return nil, err
		}
		p.ResourceType = resourceType
	}
	p.ResourcePath = req.ResourcePath

	if req.ParentID != nil {
		if err := s.checkAncestry(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
	}
	p.ParentID = req.ParentID

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkAncestry rejects a parent that does not exist or that would make the
// permission its own ancestor.
func (s *Service) checkAncestry(ctx context.Context, id, parentID uuid.UUID) error {
	current := parentID
	for depth := 0; depth < maxTreeDepth; depth++ {
		if current == id {
			return ErrCyclicParent
		}
		ancestor, err := s.repo.Get(ctx, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrParentNotFound
			}
			return err
		}
		if ancestor.ParentID == nil {
			return nil
		}
		current = *ancestor.ParentID
	}
	return ErrCyclicParent
}

// Delete removes a leaf permission. Permissions with children are protected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}
		hasChildren, err := repo.HasChildren(ctx, id)
		if err != nil {
			return err
		}
		if hasChildren {
			return ErrHasChildren
		}
		return repo.Delete(ctx, id)
	})
}

// Tree returns the full permission forest.
func (s *Service) Tree(ctx context.Context) ([]*PermissionNode, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildForest(all), nil
}

// Detail returns a single permission with its parent name resolved.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*PermissionDetail, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &PermissionDetail{
		ID:           p.ID,
		Name:         p.Name,
		Code:         p.Code,
		ResourceType: p.ResourceType.String(),
		ResourcePath: p.ResourcePath,
		ParentID:     p.ParentID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.ParentID != nil {
		parent, err := s.repo.Get(ctx, *p.ParentID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if parent != nil {
			detail.ParentName = parent.Name
		}
	}
	return detail, nil
}
