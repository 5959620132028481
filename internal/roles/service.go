package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// Service handles role business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new role with a unique name.
func (s *Service) Create(ctx context.Context, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name required: %w", httpx.ErrValidation)
	}
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	role := &Role{ID: uuid.New(), Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.Insert(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Update changes name and description of an existing role.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name, description string) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		other, err := s.repo.GetByName(ctx, name)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, ErrDuplicateName
		}
		role.Name = name
	}
	role.Description = strings.TrimSpace(description)
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Delete removes a role; its permission and user bindings cascade away with it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
