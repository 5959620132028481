package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hhportal/hhportal/internal/app"
	"github.com/hhportal/hhportal/internal/auth"
	"github.com/hhportal/hhportal/internal/permissions"
	"github.com/hhportal/hhportal/internal/platform/cache"
	"github.com/hhportal/hhportal/internal/platform/db"
	"github.com/hhportal/hhportal/internal/rbac"
	"github.com/hhportal/hhportal/internal/roles"
	"github.com/hhportal/hhportal/internal/users"
	"github.com/hhportal/hhportal/jobs"
)

// directory adapts the user and rbac services to the auth flows.
type directory struct {
	users *users.Service
	rbac  *rbac.Service
}

func (d directory) FindByLogin(ctx context.Context, login string) (*users.User, error) {
	return d.users.FindByLogin(ctx, login)
}

func (d directory) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return d.users.Get(ctx, id)
}

func (d directory) CheckPassword(u *users.User, password string) bool {
	return d.users.CheckPassword(u, password)
}

func (d directory) RoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return d.rbac.RoleNamesOf(ctx, userID)
}

func (d directory) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	return d.users.TouchLastLogin(ctx, userID)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, permission cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	permissionsRepo := permissions.NewRepository(dbpool)
	permissionsService := permissions.NewService(permissionsRepo)
	permissionsHandler := permissions.NewHandler(logger, permissionsService)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)
	rolesHandler := roles.NewHandler(logger, rolesService)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, permissionsRepo, redisClient, logger)
	rbacService.StrictRoleAssign = cfg.StrictRoleAssign
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	bindingsHandler := rbac.NewHandler(logger, rbacService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacService)

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, directory{users: usersService, rbac: rbacService}, issuer, cfg.RefreshTokenTTL, logger)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Issuer: issuer}

	var jobsHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobsHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		RBACMiddleware:     rbacMiddleware,
		PermissionsHandler: permissionsHandler,
		RolesHandler:       rolesHandler,
		BindingsHandler:    bindingsHandler,
		UsersHandler:       usersHandler,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
