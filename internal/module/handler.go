package module

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/transport"
	"github.com/cflux/backoffice/pkg/logger"
)

type ServiceAPI interface {
	ModulesForUser(userID string) ([]UserModule, error)
	GetModules(includeInactive bool) ([]Module, error)
	GetModuleByID(id string) (*Module, error)
	CreateModule(dto *CreateModuleDTO) (*Module, error)
	UpdateModule(id string, dto *UpdateModuleDTO) (*Module, error)
	DeleteModule(id string) error
	GrantAccess(dto *GrantAccessDTO) (*Access, error)
	UpdateAccess(id string, dto *UpdatePermissionsDTO) (*Access, error)
	RevokeAccess(id string) error
	AccessByGroup(groupID string) ([]Access, error)
	GroupsForModule(moduleID string) ([]Access, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// UserModules returns the caller's accessible modules with merged
// permissions, ready for menu rendering.
func (h *Handler) UserModules(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	modules, err := h.Service.ModulesForUser(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, modules)
}

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	modules, err := h.Service.GetModules(includeInactive)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, modules)
}

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	mod, err := h.Service.GetModuleByID(chi.URLParam(r, "moduleId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, mod)
}

func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var dto CreateModuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mod, err := h.Service.CreateModule(&dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, mod)
}

func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var dto UpdateModuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mod, err := h.Service.UpdateModule(chi.URLParam(r, "moduleId"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, mod)
}

func (h *Handler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteModule(chi.URLParam(r, "moduleId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Module deleted successfully"})
}

func (h *Handler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	var dto GrantAccessDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	access, err := h.Service.GrantAccess(&dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, access)
}

func (h *Handler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	var dto UpdatePermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	access, err := h.Service.UpdateAccess(chi.URLParam(r, "accessId"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, access)
}

func (h *Handler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RevokeAccess(chi.URLParam(r, "accessId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Access revoked successfully"})
}

func (h *Handler) AccessByGroup(w http.ResponseWriter, r *http.Request) {
	access, err := h.Service.AccessByGroup(chi.URLParam(r, "groupId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, access)
}

func (h *Handler) GroupsForModule(w http.ResponseWriter, r *http.Request) {
	access, err := h.Service.GroupsForModule(chi.URLParam(r, "moduleId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, access)
}
