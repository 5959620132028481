package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/hhportal/hhportal/internal/auth"
	"github.com/hhportal/hhportal/internal/permissions"
	"github.com/hhportal/hhportal/internal/rbac"
	"github.com/hhportal/hhportal/internal/roles"
	"github.com/hhportal/hhportal/internal/shared"
	"github.com/hhportal/hhportal/internal/users"
	"github.com/hhportal/hhportal/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	AuthMiddleware     auth.Middleware
	RBACMiddleware     rbac.Middleware
	PermissionsHandler *permissions.Handler
	RolesHandler       *roles.Handler
	BindingsHandler    *rbac.Handler
	UsersHandler       *users.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router for the portal API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	loginLimit := 20
	if params.Config != nil && params.Config.LoginRateLimit > 0 {
		loginLimit = params.Config.LoginRateLimit
	}

	r.Route("/api", func(r chi.Router) {
		// Token endpoints are public but rate limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(loginLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.AuthHandler.MountPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			params.AuthHandler.MountProtectedRoutes(r)

			// Administration surface.
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
				params.PermissionsHandler.MountRoutes(r)
				params.RolesHandler.MountRoutes(r)
				r.Route("/rolepermissions", params.BindingsHandler.MountRoutes)
				params.UsersHandler.MountRoutes(r)
				if params.JobsHandler != nil {
					params.JobsHandler.MountRoutes(r)
				}
			})
		})
	})

	return r
}
