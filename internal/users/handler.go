package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
	"github.com/hhportal/hhportal/internal/rbac"
)

// Handler wires HTTP endpoints for account management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      *rbac.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacService *rbac.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbacService,
		validator: validator.New(),
	}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.list)
	r.Post("/users", h.create)
	r.Get("/users/{userID}", h.get)
	r.Put("/users/{userID}", h.update)
	r.Delete("/users/{userID}", h.delete)
	r.Post("/users/{userID}/change-password", h.changePassword)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]UserResponse, 0, len(accounts))
	for i := range accounts {
		names, err := h.rbac.RoleNamesOf(r.Context(), accounts[i].ID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		out = append(out, toResponse(&accounts[i], names))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	names, err := h.rbac.RoleNamesOf(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u, names))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	u, err := h.service.Create(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if len(req.Roles) > 0 {
		if err := h.rbac.ReplaceRoles(r.Context(), u.ID, req.Roles); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	names, err := h.rbac.RoleNamesOf(r.Context(), u.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user created",
		slog.String("userId", u.ID.String()),
		slog.String("username", u.Username))
	httpx.JSON(w, http.StatusCreated, toResponse(u, names))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	u, err := h.service.Update(r.Context(), id, req.Email, req.IsActive)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Roles != nil {
		if err := h.rbac.ReplaceRoles(r.Context(), id, req.Roles); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	names, err := h.rbac.RoleNamesOf(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u, names))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.rbac.InvalidateUser(r.Context(), id)
	h.logger.Info("user deleted", slog.String("userId", id.String()))
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
