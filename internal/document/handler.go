package document

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/transport"
	"github.com/cflux/backoffice/pkg/logger"
)

type ServiceAPI interface {
	CreateNode(userID string, dto *CreateNodeDTO) (*Node, error)
	GetTree(userID string) ([]Node, error)
	GetNode(userID, nodeID string) (*Node, error)
	UpdateNode(userID, nodeID string, dto *UpdateNodeDTO) (*Node, error)
	DeleteNode(userID, nodeID string) error
	ListVersions(userID, nodeID string) ([]Version, error)
}

type SearchAPI interface {
	Search(userID, query string, limit int, kind string) (*SearchResponse, error)
	Suggestions(userID, query string, limit int) ([]Suggestion, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Search  SearchAPI
}

func NewHandler(service ServiceAPI, search SearchAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Search:      search,
	}
}

func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateNodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.Service.CreateNode(user.ID, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, node)
}

func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	nodes, err := h.Service.GetTree(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, nodes)
}

func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	node, err := h.Service.GetNode(user.ID, chi.URLParam(r, "nodeId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, node)
}

func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateNodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.Service.UpdateNode(user.ID, chi.URLParam(r, "nodeId"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, node)
}

func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.DeleteNode(user.ID, chi.URLParam(r, "nodeId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	versions, err := h.Service.ListVersions(user.ID, chi.URLParam(r, "nodeId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, versions)
}

// SearchIntranet handles GET /intranet/search?q=&limit=&type=
func (h *Handler) SearchIntranet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.Search.Search(user.ID, r.URL.Query().Get("q"), limit, r.URL.Query().Get("type"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// SearchSuggestions handles GET /intranet/search/suggestions?q=&limit=
func (h *Handler) SearchSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	suggestions, err := h.Search.Suggestions(user.ID, r.URL.Query().Get("q"), limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, suggestions)
}
