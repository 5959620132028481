package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// RefreshToken is a single-use credential for minting a new token pair. The
// opaque token string is the primary key; rotation revokes the old record and
// inserts a fresh one.
type RefreshToken struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

var (
	// ErrInvalidCredentials covers every login failure. Unknown account,
	// wrong password and disabled account all surface identically.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
	// ErrInvalidRefreshToken covers every refresh failure: unknown, revoked,
	// expired, or belonging to a vanished or disabled account.
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token: %w", httpx.ErrUnauthorized)
	// ErrInvalidAccessToken signals an access token that fails validation or
	// no longer maps to a live account.
	ErrInvalidAccessToken = fmt.Errorf("invalid access token: %w", httpx.ErrUnauthorized)
)
