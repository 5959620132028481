package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
	"github.com/hhportal/hhportal/internal/shared"
)

// Middleware authenticates requests from their Bearer token.
type Middleware struct {
	Issuer *TokenIssuer
}

// Authenticate verifies the Authorization header and puts the resulting
// Principal into the request context. Validation is purely cryptographic
// here; handlers that need a liveness check call Service.Validate.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		claims, err := m.Issuer.ValidateAccessToken(token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httpx.RespondError(w, ErrInvalidAccessToken)
			return
		}
		principal := &shared.Principal{
			UserID:   userID,
			Username: claims.Username,
			Email:    claims.Email,
			Roles:    claims.Roles,
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
