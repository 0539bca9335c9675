package attachment

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/transport"
	"github.com/cflux/backoffice/pkg/logger"
)

type ServiceAPI interface {
	UploadAttachment(userID, nodeID string, up *Upload) (*Attachment, error)
	UpdateAttachment(userID, attachmentID string, up *Upload, changeReason string) (*Attachment, error)
	DeleteAttachment(userID, attachmentID string) error
	ListAttachments(userID, nodeID string) ([]Attachment, error)
	ListVersions(userID, attachmentID string) ([]AttachmentVersion, error)
	DownloadAttachment(userID, attachmentID string) (*Download, error)
	DownloadVersion(userID, versionID string) (*Download, error)
	UpdateMetadata(userID, attachmentID string, dto *UpdateMetadataDTO) (*Attachment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	maxUploadSize int64
}

func NewHandler(service ServiceAPI, maxUploadSize int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(lg),
		Service:       service,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) uploadFromRequest(r *http.Request) (*Upload, func(), error) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("missing file field: %w", err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	up := &Upload{
		OriginalFilename: header.Filename,
		MimeType:         mimeType,
		Description:      r.FormValue("description"),
		Body:             file,
	}
	return up, func() { file.Close() }, nil
}

func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	up, closeFile, err := h.uploadFromRequest(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer closeFile()

	att, err := h.Service.UploadAttachment(user.ID, chi.URLParam(r, "nodeId"), up)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, att)
}

func (h *Handler) UpdateAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	up, closeFile, err := h.uploadFromRequest(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer closeFile()

	att, err := h.Service.UpdateAttachment(user.ID, chi.URLParam(r, "attachmentId"), up, r.FormValue("changeReason"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, att)
}

func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.DeleteAttachment(user.ID, chi.URLParam(r, "attachmentId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Attachment deleted successfully"})
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	attachments, err := h.Service.ListAttachments(user.ID, chi.URLParam(r, "nodeId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, attachments)
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	versions, err := h.Service.ListVersions(user.ID, chi.URLParam(r, "attachmentId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, versions)
}

func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	dl, err := h.Service.DownloadAttachment(user.ID, chi.URLParam(r, "attachmentId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer dl.Body.Close()

	h.writeFile(w, dl)
}

func (h *Handler) DownloadVersion(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	dl, err := h.Service.DownloadVersion(user.ID, chi.URLParam(r, "versionId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer dl.Body.Close()

	h.writeFile(w, dl)
}

func (h *Handler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateMetadataDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	att, err := h.Service.UpdateMetadata(user.ID, chi.URLParam(r, "attachmentId"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, att)
}

func (h *Handler) writeFile(w http.ResponseWriter, dl *Download) {
	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	if dl.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	if _, err := io.Copy(w, dl.Body); err != nil {
		h.Logger.Error("failed to stream file", "filename", dl.Filename, "error", err)
	}
}
