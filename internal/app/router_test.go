package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hhportal/hhportal/internal/auth"
	"github.com/hhportal/hhportal/internal/permissions"
	"github.com/hhportal/hhportal/internal/rbac"
	"github.com/hhportal/hhportal/internal/roles"
	"github.com/hhportal/hhportal/internal/users"
)

func testRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	issuer := auth.NewTokenIssuer([]byte("router-test-secret-0123456789abcd"), "hhportal", "hhportal-web", time.Hour)
	return NewRouter(RouterParams{
		Logger:             logger,
		Config:             &Config{AppRequestTimeout: 5 * time.Second},
		AuthHandler:        auth.NewHandler(logger, nil),
		AuthMiddleware:     auth.Middleware{Issuer: issuer},
		RBACMiddleware:     rbac.Middleware{Logger: logger},
		PermissionsHandler: permissions.NewHandler(logger, nil),
		RolesHandler:       roles.NewHandler(logger, nil),
		BindingsHandler:    rbac.NewHandler(logger, nil),
		UsersHandler:       users.NewHandler(logger, nil, nil),
	})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter()
	paths := []string{"/api/users", "/api/roles", "/api/permissions", "/api/auth/me"}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestGarbageBearerTokenRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	testRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginValidatesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	testRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
