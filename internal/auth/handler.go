package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
	"github.com/hhportal/hhportal/internal/shared"
)

// Handler wires HTTP endpoints for the token flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPublicRoutes registers the unauthenticated token endpoints.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
	r.Post("/auth/validate", h.validate)
}

// MountProtectedRoutes registers endpoints that need an authenticated caller.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	session, err := h.service.Login(r.Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLoginResponse(session))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	session, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLoginResponse(session))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// validate re-checks the presented access token against the user store, so a
// deleted or disabled account reads as invalid even while its token is
// cryptographically fresh.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	claims, err := h.service.Validate(r.Context(), req.Token)
	if err != nil {
		// A bad token is a negative answer, not an error. Only store
		// failures break the 200 contract.
		if errors.Is(err, httpx.ErrUnauthorized) {
			httpx.JSON(w, http.StatusOK, ValidateResponse{Valid: false})
			return
		}
		httpx.RespondError(w, err)
		return
	}
	userID, _ := uuid.Parse(claims.Subject)
	httpx.JSON(w, http.StatusOK, ValidateResponse{
		Valid: true,
		User: &UserSummary{
			ID:       userID,
			Username: claims.Username,
			Email:    claims.Email,
			Roles:    claims.Roles,
		},
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	roles := principal.Roles
	if roles == nil {
		roles = []string{}
	}
	httpx.JSON(w, http.StatusOK, UserSummary{
		ID:       principal.UserID,
		Username: principal.Username,
		Email:    principal.Email,
		Roles:    roles,
	})
}
