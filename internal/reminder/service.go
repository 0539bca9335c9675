package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/core/events"
)

type Repository interface {
	GetInvoice(id string) (*Invoice, error)
	UpdateInvoiceStatus(invoiceID, status string) error
	OverdueInvoices(today time.Time) ([]InvoiceWithReminders, error)

	ListReminders(filter ListFilter) ([]Reminder, error)
	GetReminderByID(id string) (*Reminder, error)
	RemindersByInvoice(invoiceID string) ([]Reminder, error)
	LastReminderNumber(prefix string) (string, error)
	CreateReminder(r *Reminder) error
	UpdateReminder(r *Reminder) error
	DeleteReminder(id string) error

	GetSettings() (*Settings, error)
	GetSettingsByID(id string) (*Settings, error)
	CreateSettings(s *Settings) error
	UpdateSettings(s *Settings) error

	CountByStatus() (map[Status]int, error)
	CountByLevel() (map[Level]int, error)
	SumFees() (fees float64, interest float64, err error)
}

type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{repo: repo, bus: bus, logger: logger}
}

func (s *Service) ListReminders(filter ListFilter) ([]Reminder, error) {
	return s.repo.ListReminders(filter)
}

func (s *Service) GetReminder(id string) (*Reminder, error) {
	return s.repo.GetReminderByID(id)
}

func (s *Service) RemindersByInvoice(invoiceID string) ([]Reminder, error) {
	if _, err := s.repo.GetInvoice(invoiceID); err != nil {
		return nil, err
	}
	return s.repo.RemindersByInvoice(invoiceID)
}

// CreateReminder opens a new dunning notice at PENDING. The reminder
// number continues the M-{year}-{NNN} sequence; the total is the
// invoice amount plus fee and interest.
func (s *Service) CreateReminder(dto *CreateReminderDTO) (*Reminder, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	invoice, err := s.repo.GetInvoice(dto.InvoiceID)
	if err != nil {
		return nil, err
	}

	number, err := s.nextReminderNumber(time.Now().Year())
	if err != nil {
		return nil, err
	}

	level := dto.Level
	if level == "" {
		level = LevelFirst
	}

	fee := 0.0
	if dto.ReminderFee != nil {
		fee = *dto.ReminderFee
	}
	interest := 0.0
	if dto.InterestAmount != nil {
		interest = *dto.InterestAmount
	}
	rate := 5.0
	if dto.InterestRate != nil {
		rate = *dto.InterestRate
	}

	now := time.Now()
	rem := &Reminder{
		ID:             uuid.New().String(),
		InvoiceID:      invoice.ID,
		ReminderNumber: number,
		Level:          level,
		Status:         StatusPending,
		ReminderDate:   now,
		DueDate:        dto.ParsedDueDate(),
		OriginalAmount: invoice.TotalAmount,
		ReminderFee:    fee,
		InterestAmount: interest,
		TotalAmount:    invoice.TotalAmount + fee + interest,
		InterestRate:   rate,
		Subject:        dto.Subject,
		Message:        dto.Message,
		Notes:          dto.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateReminder(rem); err != nil {
		return nil, err
	}

	s.logger.Info("reminder created",
		"reminder_id", rem.ID,
		"reminder_number", number,
		"invoice_id", invoice.ID,
		"level", level)
	return rem, nil
}

func (s *Service) nextReminderNumber(year int) (string, error) {
	prefix := fmt.Sprintf("M-%d-", year)
	last, err := s.repo.LastReminderNumber(prefix)
	if err != nil {
		return "", err
	}

	next := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

// UpdateReminder applies a partial update. Status changes go through
// the strict transition table; fee or interest changes recompute the
// total against the stored original amount.
func (s *Service) UpdateReminder(id string, dto *UpdateReminderDTO) (*Reminder, error) {
	rem, err := s.repo.GetReminderByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Status != nil && *dto.Status != rem.Status {
		if !CanTransition(rem.Status, *dto.Status) {
			return nil, transitionError(rem.Status, *dto.Status)
		}
		rem.Status = *dto.Status
	}
	if dto.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *dto.DueDate)
		if err != nil {
			due, err = time.Parse("2006-01-02", *dto.DueDate)
			if err != nil {
				return nil, internal.NewValidationError("due_date must be an ISO date", internal.ErrCodeValidationFailed)
			}
		}
		rem.DueDate = due
	}
	if dto.ReminderFee != nil {
		rem.ReminderFee = *dto.ReminderFee
	}
	if dto.InterestAmount != nil {
		rem.InterestAmount = *dto.InterestAmount
	}
	if dto.InterestRate != nil {
		rem.InterestRate = *dto.InterestRate
	}
	if dto.Subject != nil {
		rem.Subject = dto.Subject
	}
	if dto.Message != nil {
		rem.Message = dto.Message
	}
	if dto.Notes != nil {
		rem.Notes = dto.Notes
	}
	if dto.ReminderFee != nil || dto.InterestAmount != nil {
		rem.TotalAmount = rem.OriginalAmount + rem.ReminderFee + rem.InterestAmount
	}
	rem.UpdatedAt = time.Now()

	if err := s.repo.UpdateReminder(rem); err != nil {
		return nil, err
	}
	return rem, nil
}

func (s *Service) DeleteReminder(id string) error {
	if _, err := s.repo.GetReminderByID(id); err != nil {
		return err
	}
	return s.repo.DeleteReminder(id)
}

// SendReminder moves PENDING to SENT and flags the invoice OVERDUE.
func (s *Service) SendReminder(ctx context.Context, id, sentBy string) (*Reminder, error) {
	rem, err := s.repo.GetReminderByID(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rem.Status, StatusSent) {
		return nil, transitionError(rem.Status, StatusSent)
	}

	now := time.Now()
	rem.Status = StatusSent
	rem.SentDate = &now
	rem.SentBy = &sentBy
	rem.UpdatedAt = now
	if err := s.repo.UpdateReminder(rem); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateInvoiceStatus(rem.InvoiceID, "OVERDUE"); err != nil {
		s.logger.Error("failed to flag invoice overdue", "invoice_id", rem.InvoiceID, "error", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewReminderSentEvent(rem.ID, rem.InvoiceID, string(rem.Level), rem.TotalAmount, sentBy, rem.ReminderNumber))
	}

	s.logger.Info("reminder sent",
		"reminder_id", rem.ID,
		"reminder_number", rem.ReminderNumber,
		"sent_by", sentBy)
	return rem, nil
}

// MarkPaid moves SENT to PAID and settles the invoice.
func (s *Service) MarkPaid(id string) (*Reminder, error) {
	rem, err := s.repo.GetReminderByID(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rem.Status, StatusPaid) {
		return nil, transitionError(rem.Status, StatusPaid)
	}

	now := time.Now()
	rem.Status = StatusPaid
	rem.PaidDate = &now
	rem.UpdatedAt = now
	if err := s.repo.UpdateReminder(rem); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateInvoiceStatus(rem.InvoiceID, "PAID"); err != nil {
		s.logger.Error("failed to settle invoice", "invoice_id", rem.InvoiceID, "error", err)
	}
	return rem, nil
}

// OverdueInvoices scans for unpaid invoices past their due date and
// decorates each with the escalation the settings suggest.
func (s *Service) OverdueInvoices() ([]OverdueInvoice, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	invoices, err := s.repo.OverdueInvoices(today)
	if err != nil {
		return nil, err
	}

	result := make([]OverdueInvoice, 0, len(invoices))
	for _, inv := range invoices {
		daysPastDue := int(today.Sub(inv.DueDate.Truncate(24*time.Hour)).Hours() / 24)
		level, fee, shouldSend := SuggestReminder(len(inv.Reminders), daysPastDue, settings)

		var last *Reminder
		if len(inv.Reminders) > 0 {
			last = &inv.Reminders[0]
		}

		result = append(result, OverdueInvoice{
			InvoiceWithReminders: inv,
			DaysPastDue:          daysPastDue,
			ReminderCount:        len(inv.Reminders),
			LastReminder:         last,
			SuggestedLevel:       level,
			SuggestedFee:         fee,
			ShouldSendReminder:   shouldSend,
		})
	}
	return result, nil
}

// SuggestReminder picks the next dunning level from the number of
// reminders already issued, and reports whether the invoice has been
// overdue long enough for that level's threshold.
func SuggestReminder(reminderCount, daysPastDue int, settings *Settings) (Level, float64, bool) {
	var level Level
	var fee float64
	var waitDays int

	switch {
	case reminderCount == 0:
		level, fee, waitDays = LevelFirst, settings.FirstReminderFee, settings.FirstReminderDays
	case reminderCount == 1:
		level, fee, waitDays = LevelSecond, settings.SecondReminderFee, settings.SecondReminderDays
	default:
		level, fee, waitDays = LevelFinal, settings.FinalReminderFee, settings.FinalReminderDays
	}
	return level, fee, daysPastDue >= waitDays
}

// GetSettings returns the settings row, creating it with defaults when
// none exists yet.
func (s *Service) GetSettings() (*Settings, error) {
	settings, err := s.repo.GetSettings()
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	settings = DefaultSettings()
	settings.ID = uuid.New().String()
	settings.CreatedAt = time.Now()
	settings.UpdatedAt = settings.CreatedAt
	if err := s.repo.CreateSettings(settings); err != nil {
		return nil, err
	}
	s.logger.Info("reminder settings created with defaults", "settings_id", settings.ID)
	return settings, nil
}

func (s *Service) UpdateSettings(id string, dto *UpdateSettingsDTO) (*Settings, error) {
	settings, err := s.repo.GetSettingsByID(id)
	if err != nil {
		return nil, err
	}

	dto.Apply(settings)
	settings.UpdatedAt = time.Now()
	if err := s.repo.UpdateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Service) GetStats() (*Stats, error) {
	byStatus, err := s.repo.CountByStatus()
	if err != nil {
		return nil, err
	}
	byLevel, err := s.repo.CountByLevel()
	if err != nil {
		return nil, err
	}
	fees, interest, err := s.repo.SumFees()
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	return &Stats{
		TotalReminders: total,
		ByStatus:       byStatus,
		ByLevel:        byLevel,
		TotalFees:      fees,
		TotalInterest:  interest,
	}, nil
}

func transitionError(from, to Status) error {
	return internal.NewValidationError(
		fmt.Sprintf("Invalid status transition from %s to %s", from, to),
		internal.ErrCodeInvalidStatus)
}
