package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hhportal/hhportal/internal/platform/httpx"
)

// AssignPermissionsRequest carries the full replacement permission set for a
// role. An empty list clears every binding.
type AssignPermissionsRequest struct {
	PermissionIDs []uuid.UUID `json:"permissionIds"`
}

// Handler manages role-permission binding endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers binding routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/roles/{roleID}/permissions", h.rolePermissions)
	r.Post("/roles/{roleID}/permissions", h.assign)
	r.Delete("/roles/{roleID}/permissions/{permissionID}", h.unassign)
	r.Get("/roles/{roleID}/available-permissions", h.availablePermissions)
	r.Get("/users/{userID}/permissions", h.userPermissions)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	forest, err := h.service.PermissionsForRole(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, forest)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	var req AssignPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.service.Assign(r.Context(), roleID, req.PermissionIDs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("role permissions replaced",
		slog.String("roleId", roleID.String()),
		slog.Int("count", len(req.PermissionIDs)))
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "permissions assigned"})
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	permissionID, err := uuid.Parse(chi.URLParam(r, "permissionID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid permission id")
		return
	}
	if err := h.service.Unassign(r.Context(), roleID, permissionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "permission removed"})
}

func (h *Handler) availablePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	forest, err := h.service.AvailablePermissions(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, forest)
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	codes, err := h.service.EffectiveCodes(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, codes)
}
