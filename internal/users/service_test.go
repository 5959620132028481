package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	users map[uuid.UUID]*User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[uuid.UUID]*User)}
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memRepo) FindByLogin(_ context.Context, login string) (*User, error) {
	for _, u := range m.users {
		if u.Username == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) List(context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memRepo) Insert(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, u *User) error {
	stored, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Email = u.Email
	stored.IsActive = u.IsActive
	stored.UpdatedAt = time.Now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	stored, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	stored.PasswordHash = hash
	return nil
}

func (m *memRepo) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	if stored, ok := m.users[id]; ok {
		now := time.Now()
		stored.LastLoginAt = &now
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	service := NewService(newMemRepo())
	u, err := service.Create(context.Background(), "alice", "  Alice@Example.COM ", "s3cret-pass")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if !u.IsActive {
		t.Fatalf("expected new account to be active")
	}
	if u.PasswordHash == "s3cret-pass" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	if _, err := service.Create(ctx, "alice", "alice@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := service.Create(ctx, "alice", "other@example.com", "s3cret-pass"); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := service.Create(ctx, "bob", "alice@example.com", "s3cret-pass"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	u, err := service.Create(ctx, "alice", "alice@example.com", "old-password")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.ChangePassword(ctx, u.ID, "wrong-password", "new-password"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := service.ChangePassword(ctx, u.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	updated, err := service.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !service.CheckPassword(updated, "new-password") {
		t.Fatalf("new password should verify")
	}
	if service.CheckPassword(updated, "old-password") {
		t.Fatalf("old password should no longer verify")
	}
}

func TestFindByLoginMatchesUsernameOrEmail(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	if _, err := service.Create(ctx, "alice", "alice@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("create: %v", err)
	}

	byName, err := service.FindByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("by username: %v", err)
	}
	byEmail, err := service.FindByLogin(ctx, " alice@example.com ")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if byName.ID != byEmail.ID {
		t.Fatalf("expected same account")
	}
	if _, err := service.FindByLogin(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTogglesActive(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	u, err := service.Create(ctx, "alice", "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inactive := false
	updated, err := service.Update(ctx, u.ID, "new@example.com", &inactive)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive || updated.Email != "new@example.com" {
		t.Fatalf("unexpected state after update: %+v", updated)
	}

	// Nil flag leaves the status untouched.
	updated, err = service.Update(ctx, u.ID, "new@example.com", nil)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("nil flag must not reactivate the account")
	}
}
