package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/transport"
	"github.com/cflux/backoffice/pkg/logger"
)

type ServiceAPI interface {
	ListReminders(filter ListFilter) ([]Reminder, error)
	GetReminder(id string) (*Reminder, error)
	RemindersByInvoice(invoiceID string) ([]Reminder, error)
	CreateReminder(dto *CreateReminderDTO) (*Reminder, error)
	UpdateReminder(id string, dto *UpdateReminderDTO) (*Reminder, error)
	DeleteReminder(id string) error
	SendReminder(ctx context.Context, id, sentBy string) (*Reminder, error)
	MarkPaid(id string) (*Reminder, error)
	OverdueInvoices() ([]OverdueInvoice, error)
	GetSettings() (*Settings, error)
	UpdateSettings(id string, dto *UpdateSettingsDTO) (*Settings, error)
	GetStats() (*Stats, error)
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

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:     Status(r.URL.Query().Get("status")),
		Level:      Level(r.URL.Query().Get("level")),
		CustomerID: r.URL.Query().Get("customerId"),
	}

	reminders, err := h.Service.ListReminders(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, reminders)
}

func (h *Handler) GetReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := h.Service.GetReminder(chi.URLParam(r, "reminderId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rem)
}

func (h *Handler) RemindersByInvoice(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.Service.RemindersByInvoice(chi.URLParam(r, "invoiceId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, reminders)
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var dto CreateReminderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rem, err := h.Service.CreateReminder(&dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rem)
}

func (h *Handler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	var dto UpdateReminderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rem, err := h.Service.UpdateReminder(chi.URLParam(r, "reminderId"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rem)
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteReminder(chi.URLParam(r, "reminderId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted successfully"})
}

func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rem, err := h.Service.SendReminder(r.Context(), chi.URLParam(r, "reminderId"), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rem)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	rem, err := h.Service.MarkPaid(chi.URLParam(r, "reminderId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rem)
}

func (h *Handler) OverdueInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Service.OverdueInvoices()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, invoices)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetSettings()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var dto UpdateSettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := h.Service.UpdateSettings(chi.URLParam(r, "settingsId"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetStats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
