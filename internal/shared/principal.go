// Package shared holds cross-module request context helpers.
package shared

import (
	"context"

	"github.com/google/uuid"
)

// RoleAdmin guards the management surface of the portal.
const RoleAdmin = "Admin"

// Principal describes the authenticated actor as carried in the request
// context after access-token validation.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Email    string
	Roles    []string
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, or nil when the
// request carries no valid access token.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
