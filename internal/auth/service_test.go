package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hhportal/hhportal/internal/platform/httpx"
	"github.com/hhportal/hhportal/internal/users"
)

type memTokenRepo struct {
	tokens map[string]*RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (m *memTokenRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memTokenRepo) Insert(_ context.Context, token *RefreshToken) error {
	token.CreatedAt = time.Now()
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *memTokenRepo) Get(_ context.Context, token string) (*RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrInvalidRefreshToken
}

func (m *memTokenRepo) Revoke(_ context.Context, token string) (bool, error) {
	t, ok := m.tokens[token]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (m *memTokenRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *memTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for key, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

type stubDirectory struct {
	users       map[uuid.UUID]*users.User
	roles       map[uuid.UUID][]string
	lastLoginAt map[uuid.UUID]time.Time
	findErr     error
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		users:       make(map[uuid.UUID]*users.User),
		roles:       make(map[uuid.UUID][]string),
		lastLoginAt: make(map[uuid.UUID]time.Time),
	}
}

func (d *stubDirectory) addUser(t *testing.T, username, password string, active bool, roleNames ...string) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &users.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	d.users[u.ID] = u
	d.roles[u.ID] = roleNames
	return u
}

func (d *stubDirectory) FindByLogin(_ context.Context, login string) (*users.User, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	for _, u := range d.users {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (d *stubDirectory) FindByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

func (d *stubDirectory) CheckPassword(u *users.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (d *stubDirectory) RoleNames(_ context.Context, userID uuid.UUID) ([]string, error) {
	return d.roles[userID], nil
}

func (d *stubDirectory) TouchLastLogin(_ context.Context, userID uuid.UUID) error {
	d.lastLoginAt[userID] = time.Now()
	return nil
}

func newTestService(dir *stubDirectory, repo Repository) *Service {
	return NewService(repo, dir, testIssuer(), 7*24*time.Hour, nil)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	dir := newStubDirectory()
	repo := newMemTokenRepo()
	user := dir.addUser(t, "alice", "s3cret-pass", true, "Admin")
	service := newTestService(dir, repo)

	session, err := service.Login(context.Background(), "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if session.User.ID != user.ID {
		t.Fatalf("session bound to wrong user")
	}

	record, err := repo.Get(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token not stored: %v", err)
	}
	if record.Revoked || record.UserID != user.ID {
		t.Fatalf("bad refresh record: %+v", record)
	}
	if _, stamped := dir.lastLoginAt[user.ID]; !stamped {
		t.Fatalf("expected last login stamp")
	}

	claims, err := testIssuer().ValidateAccessToken(session.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "Admin" {
		t.Fatalf("roles not embedded: %v", claims.Roles)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	dir := newStubDirectory()
	dir.addUser(t, "alice", "s3cret-pass", true)
	dir.addUser(t, "carol", "s3cret-pass", false)
	service := newTestService(dir, newMemTokenRepo())
	ctx := context.Background()

	cases := []struct{ login, password string }{
		{"nobody", "whatever"},
		{"alice", "wrong-password"},
		{"carol", "s3cret-pass"},
	}
	for _, tc := range cases {
		_, err := service.Login(ctx, tc.login, tc.password, false)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login %q: expected ErrInvalidCredentials, got %v", tc.login, err)
		}
	}
}

func TestStoreOutageIsNotAuthFailure(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true)
	repo := newMemTokenRepo()
	service := newTestService(dir, repo)
	ctx := context.Background()

	session, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	access, _, err := testIssuer().IssueAccessToken(user.ID, user.Username, user.Email, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	dir.findErr = errors.New("dial tcp 127.0.0.1:5432: connection refused")

	if _, err := service.Login(ctx, "alice", "s3cret-pass", false); !errors.Is(err, httpx.ErrUnavailable) {
		t.Fatalf("login during outage: expected ErrUnavailable, got %v", err)
	} else if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("outage must not read as bad credentials")
	}

	if _, err := service.Refresh(ctx, session.RefreshToken); !errors.Is(err, httpx.ErrUnavailable) {
		t.Fatalf("refresh during outage: expected ErrUnavailable, got %v", err)
	} else if errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("outage must not read as a bad refresh token")
	}

	if _, err := service.Validate(ctx, access); !errors.Is(err, httpx.ErrUnavailable) {
		t.Fatalf("validate during outage: expected ErrUnavailable, got %v", err)
	} else if errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("outage must not read as a bad access token")
	}
}

func TestRememberMeDoesNotChangeLifetimes(t *testing.T) {
	dir := newStubDirectory()
	dir.addUser(t, "alice", "s3cret-pass", true)
	service := newTestService(dir, newMemTokenRepo())
	ctx := context.Background()

	plain, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	remembered, err := service.Login(ctx, "alice", "s3cret-pass", true)
	if err != nil {
		t.Fatalf("login remembered: %v", err)
	}
	if diff := remembered.ExpiresAt.Sub(plain.ExpiresAt); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("rememberMe changed the access expiry by %v", diff)
	}
}

func TestRefreshRotatesSingleUse(t *testing.T) {
	dir := newStubDirectory()
	dir.addUser(t, "alice", "s3cret-pass", true, "Admin")
	repo := newMemTokenRepo()
	service := newTestService(dir, repo)
	ctx := context.Background()

	session, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := service.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == session.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}

	// The presented token is spent.
	if _, err := service.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("second use should fail, got %v", err)
	}
	// The replacement still works.
	if _, err := service.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token should work: %v", err)
	}
}

func TestRefreshRecomputesRoles(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true, "Admin")
	service := newTestService(dir, newMemTokenRepo())
	ctx := context.Background()

	session, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	dir.roles[user.ID] = []string{"Viewer"}
	rotated, err := service.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := testIssuer().ValidateAccessToken(rotated.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "Viewer" {
		t.Fatalf("expected refreshed roles, got %v", claims.Roles)
	}
}

func TestRefreshRejectsExpiredAndOrphaned(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true)
	repo := newMemTokenRepo()
	service := newTestService(dir, repo)
	ctx := context.Background()

	expired := &RefreshToken{Token: "expired-token", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	if err := repo.Insert(ctx, expired); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := service.Refresh(ctx, "expired-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expired token should fail, got %v", err)
	}

	session, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	delete(dir.users, user.ID)
	if _, err := service.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("orphaned token should fail, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	dir := newStubDirectory()
	dir.addUser(t, "alice", "s3cret-pass", true)
	service := newTestService(dir, newMemTokenRepo())
	ctx := context.Background()

	session, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := service.Logout(ctx, session.RefreshToken); err != nil {
			t.Fatalf("logout round %d: %v", i, err)
		}
	}
	if err := service.Logout(ctx, "never-issued"); err != nil {
		t.Fatalf("unknown token logout: %v", err)
	}

	if _, err := service.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("revoked token should not refresh, got %v", err)
	}
}

func TestValidateChecksAccountLiveness(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true)
	service := newTestService(dir, newMemTokenRepo())
	ctx := context.Background()

	session, err := service.Login(ctx, "alice", "s3cret-pass", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := service.Validate(ctx, session.AccessToken); err != nil {
		t.Fatalf("validate: %v", err)
	}

	user.IsActive = false
	if _, err := service.Validate(ctx, session.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("disabled account should fail, got %v", err)
	}

	user.IsActive = true
	delete(dir.users, user.ID)
	if _, err := service.Validate(ctx, session.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("deleted account should fail, got %v", err)
	}
}

func TestPurgeExpiredDropsOnlyStaleTokens(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true)
	repo := newMemTokenRepo()
	service := newTestService(dir, repo)
	ctx := context.Background()

	stale := &RefreshToken{Token: "stale", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	live := &RefreshToken{Token: "live", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	for _, tok := range []*RefreshToken{stale, live} {
		if err := repo.Insert(ctx, tok); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	purged, err := service.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged token, got %d", purged)
	}
	if _, err := repo.Get(ctx, "live"); err != nil {
		t.Fatalf("live token should survive: %v", err)
	}
}
