package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service wraps account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all accounts ordered by username.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether the account still exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Create registers a new active account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(strings.ToLower(email)),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update changes email and active status of an account.
func (s *Service) Update(ctx context.Context, id uuid.UUID, email string, isActive *bool) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Email = strings.TrimSpace(strings.ToLower(email))
	if isActive != nil {
		u.IsActive = *isActive
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account. Bindings and refresh tokens cascade in the store.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// FindByLogin resolves an account by username or email.
func (s *Service) FindByLogin(ctx context.Context, login string) (*User, error) {
	return s.repo.FindByLogin(ctx, strings.TrimSpace(login))
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (s *Service) CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// TouchLastLogin stamps the account's last successful login time.
func (s *Service) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return s.repo.TouchLastLogin(ctx, id)
}
