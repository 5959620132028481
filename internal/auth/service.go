package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
	"github.com/hhportal/hhportal/internal/users"
)

// Directory resolves accounts and their roles for the auth flows. The
// composition root wires the user and rbac services behind it.
type Directory interface {
	FindByLogin(ctx context.Context, login string) (*users.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	CheckPassword(u *users.User, password string) bool
	RoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	TouchLastLogin(ctx context.Context, userID uuid.UUID) error
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *users.User
	Roles        []string
}

// Service implements the login, refresh, logout and validate flows.
type Service struct {
	repo       Repository
	dir        Directory
	issuer     *TokenIssuer
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, dir Directory, issuer *TokenIssuer, refreshTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, dir: dir, issuer: issuer, refreshTTL: refreshTTL, logger: logger}
}

// Login verifies credentials and issues a token pair. Unknown account, wrong
// password and disabled account all map to ErrInvalidCredentials so responses
// carry no account information; store failures keep their own identity. The
// rememberMe flag is accepted for API compatibility and does not change token
// lifetimes.
func (s *Service) Login(ctx context.Context, login, password string, rememberMe bool) (*Session, error) {
	_ = rememberMe

	user, err := s.dir.FindByLogin(ctx, login)
	if err != nil {
		return nil, accountErr(err, ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !s.dir.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, s.repo, user)
	if err != nil {
		return nil, err
	}
	if err := s.dir.TouchLastLogin(ctx, user.ID); err != nil && s.logger != nil {
		s.logger.Warn("stamp last login", slog.Any("error", err))
	}
	if s.logger != nil {
		s.logger.Info("user logged in", slog.String("userId", user.ID.String()))
	}
	return session, nil
}

// Refresh rotates a refresh token. The presented token is revoked and a new
// pair is issued in one transaction, so each token works exactly once even
// under concurrent use. Roles are re-read from the store, not carried over
// from the old access token.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	var session *Session
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		record, err := repo.Get(ctx, token)
		if err != nil {
			return err
		}
		if record.Revoked || record.Expired(time.Now().UTC()) {
			return ErrInvalidRefreshToken
		}
		rotated, err := repo.Revoke(ctx, token)
		if err != nil {
			return err
		}
		if !rotated {
			return ErrInvalidRefreshToken
		}

		user, err := s.dir.FindByID(ctx, record.UserID)
		if err != nil {
			return accountErr(err, ErrInvalidRefreshToken)
		}
		if !user.IsActive {
			return ErrInvalidRefreshToken
		}

		session, err = s.issueSession(ctx, repo, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout revokes a refresh token. Unknown and already-revoked tokens succeed
// silently, so repeated logouts are harmless.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := s.repo.Revoke(ctx, token)
	return err
}

// Validate checks an access token and confirms its subject still maps to a
// live account. A token signed for a since-deleted or disabled user fails.
func (s *Service) Validate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.issuer.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	user, err := s.dir.FindByID(ctx, userID)
	if err != nil {
		return nil, accountErr(err, ErrInvalidAccessToken)
	}
	if !user.IsActive {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// RevokeAllForUser invalidates every outstanding refresh token of an account.
func (s *Service) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	revoked, err := s.repo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	if s.logger != nil && revoked > 0 {
		s.logger.Info("refresh tokens revoked",
			slog.String("userId", userID.String()), slog.Int64("count", revoked))
	}
	return nil
}

// PurgeExpired deletes refresh tokens past their expiry and returns how many
// rows went away.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now().UTC())
}

// accountErr maps a missing account onto the uniform credential failure.
// Anything else, a dead user store included, keeps its own identity so the
// handler answers 500, not 401.
func accountErr(err, uniform error) error {
	if errors.Is(err, users.ErrNotFound) {
		return uniform
	}
	return fmt.Errorf("resolve account: %w: %w", httpx.ErrUnavailable, err)
}

func (s *Service) issueSession(ctx context.Context, repo Repository, user *users.User) (*Session, error) {
	roleNames, err := s.dir.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	access, expiresAt, err := s.issuer.IssueAccessToken(user.ID, user.Username, user.Email, roleNames)
	if err != nil {
		return nil, err
	}
	refresh, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}
	record := &RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(s.refreshTTL),
	}
	if err := repo.Insert(ctx, record); err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         user,
		Roles:        roleNames,
	}, nil
}
