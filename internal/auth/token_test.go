package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer([]byte("test-secret-0123456789abcdef0123"), "hhportal", "hhportal-web", time.Hour)
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	ti := testIssuer()
	userID := uuid.New()

	signed, expiresAt, err := ti.IssueAccessToken(userID, "alice", "alice@example.com", []string{"Admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > time.Hour {
		t.Fatalf("unexpected expiry window: %v", remaining)
	}

	claims, err := ti.ValidateAccessToken(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("identity claims mismatch: %+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "Admin" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, _, err := testIssuer().IssueAccessToken(uuid.New(), "alice", "a@example.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewTokenIssuer([]byte("another-secret-entirely-32bytes!"), "hhportal", "hhportal-web", time.Hour)
	if _, err := other.ValidateAccessToken(signed); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestValidateRejectsWrongIssuerAndAudience(t *testing.T) {
	ti := testIssuer()
	secret := []byte("test-secret-0123456789abcdef0123")

	foreign := NewTokenIssuer(secret, "other-portal", "hhportal-web", time.Hour)
	signed, _, err := foreign.IssueAccessToken(uuid.New(), "alice", "a@example.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ti.ValidateAccessToken(signed); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("wrong issuer should fail, got %v", err)
	}

	foreign = NewTokenIssuer(secret, "hhportal", "other-audience", time.Hour)
	signed, _, err = foreign.IssueAccessToken(uuid.New(), "alice", "a@example.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ti.ValidateAccessToken(signed); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("wrong audience should fail, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	ti := testIssuer()
	signed, _, err := ti.IssueAccessToken(uuid.New(), "alice", "a@example.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ti.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := ti.ValidateAccessToken(signed); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expired token should fail, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	ti := testIssuer()
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ti.ValidateAccessToken(token); !errors.Is(err, ErrInvalidAccessToken) {
			t.Fatalf("token %q should fail, got %v", token, err)
		}
	}
}

func TestNewRefreshTokenShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := NewRefreshToken()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(token))
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate refresh token generated")
		}
		seen[token] = struct{}{}
	}
}
