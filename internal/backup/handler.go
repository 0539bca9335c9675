package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/transport"
	"github.com/cflux/backoffice/pkg/logger"
)

type ServiceAPI interface {
	CreateBackup(ctx context.Context, createdBy string) (*CreateResult, error)
	ListBackups() ([]FileInfo, error)
	ResolvePath(filename string) (string, error)
	DeleteBackup(filename string) error
	RestoreBackup(ctx context.Context, filename, restoredBy string) (*RestoreResult, error)
	UploadBackup(originalFilename string, size int64, body io.Reader) (*FileInfo, error)
	Export(ctx context.Context) ([]byte, string, error)
}

// Handler exposes the backup endpoints. All routes are admin-gated by
// the router, which is why error details may flow back to the caller.
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

func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.Service.CreateBackup(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	files, err := h.Service.ListBackups()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	path, err := h.Service.ResolvePath(chi.URLParam(r, "filename"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "Backup file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	if _, err := io.Copy(w, f); err != nil {
		h.Logger.Error("failed to stream backup file", "path", path, "error", err)
	}
}

func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteBackup(chi.URLParam(r, "filename")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Backup deleted successfully"})
}

func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.Service.RestoreBackup(r.Context(), chi.URLParam(r, "filename"), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) UploadBackup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("backup")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "backup file is required")
		return
	}
	defer file.Close()

	info, err := h.Service.UploadBackup(header.Filename, header.Size, file)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, info)
}

func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	payload, filename, err := h.Service.Export(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	if _, err := w.Write(payload); err != nil {
		h.Logger.Error("failed to stream export", "error", err)
	}
}
