package reminder

import (
	"time"

	"github.com/cflux/backoffice/internal"
)

type CreateReminderDTO struct {
	InvoiceID      string   `json:"invoice_id"`
	Level          Level    `json:"level,omitempty"`
	DueDate        string   `json:"due_date"`
	ReminderFee    *float64 `json:"reminder_fee,omitempty"`
	InterestAmount *float64 `json:"interest_amount,omitempty"`
	InterestRate   *float64 `json:"interest_rate,omitempty"`
	Subject        *string  `json:"subject,omitempty"`
	Message        *string  `json:"message,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

func (dto CreateReminderDTO) Validate() error {
	if dto.InvoiceID == "" {
		return internal.NewValidationError("invoice_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.DueDate == "" {
		return internal.NewValidationError("due_date is required", internal.ErrCodeValidationFailed)
	}
	if _, err := time.Parse(time.RFC3339, dto.DueDate); err != nil {
		if _, err := time.Parse("2006-01-02", dto.DueDate); err != nil {
			return internal.NewValidationError("due_date must be an ISO date", internal.ErrCodeValidationFailed)
		}
	}
	switch dto.Level {
	case "", LevelFirst, LevelSecond, LevelFinal:
	default:
		return internal.NewValidationError("level must be FIRST_REMINDER, SECOND_REMINDER or FINAL_REMINDER", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ParsedDueDate accepts RFC3339 or plain dates.
func (dto CreateReminderDTO) ParsedDueDate() time.Time {
	if t, err := time.Parse(time.RFC3339, dto.DueDate); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", dto.DueDate)
	return t
}

type UpdateReminderDTO struct {
	Status         *Status  `json:"status,omitempty"`
	DueDate        *string  `json:"due_date,omitempty"`
	ReminderFee    *float64 `json:"reminder_fee,omitempty"`
	InterestAmount *float64 `json:"interest_amount,omitempty"`
	InterestRate   *float64 `json:"interest_rate,omitempty"`
	Subject        *string  `json:"subject,omitempty"`
	Message        *string  `json:"message,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

type UpdateSettingsDTO struct {
	FirstReminderDays         *int     `json:"first_reminder_days,omitempty"`
	SecondReminderDays        *int     `json:"second_reminder_days,omitempty"`
	FinalReminderDays         *int     `json:"final_reminder_days,omitempty"`
	FirstReminderFee          *float64 `json:"first_reminder_fee,omitempty"`
	SecondReminderFee         *float64 `json:"second_reminder_fee,omitempty"`
	FinalReminderFee          *float64 `json:"final_reminder_fee,omitempty"`
	DefaultInterestRate       *float64 `json:"default_interest_rate,omitempty"`
	FirstReminderPaymentDays  *int     `json:"first_reminder_payment_days,omitempty"`
	SecondReminderPaymentDays *int     `json:"second_reminder_payment_days,omitempty"`
	FinalReminderPaymentDays  *int     `json:"final_reminder_payment_days,omitempty"`
	AutoSendReminders         *bool    `json:"auto_send_reminders,omitempty"`
	AutoEscalate              *bool    `json:"auto_escalate,omitempty"`
}

func (dto UpdateSettingsDTO) Apply(s *Settings) {
	if dto.FirstReminderDays != nil {
		s.FirstReminderDays = *dto.FirstReminderDays
	}
	if dto.SecondReminderDays != nil {
		s.SecondReminderDays = *dto.SecondReminderDays
	}
	if dto.FinalReminderDays != nil {
		s.FinalReminderDays = *dto.FinalReminderDays
	}
	if dto.FirstReminderFee != nil {
		s.FirstReminderFee = *dto.FirstReminderFee
	}
	if dto.SecondReminderFee != nil {
		s.SecondReminderFee = *dto.SecondReminderFee
	}
	if dto.FinalReminderFee != nil {
		s.FinalReminderFee = *dto.FinalReminderFee
	}
	if dto.DefaultInterestRate != nil {
		s.DefaultInterestRate = *dto.DefaultInterestRate
	}
	if dto.FirstReminderPaymentDays != nil {
		s.FirstReminderPaymentDays = *dto.FirstReminderPaymentDays
	}
	if dto.SecondReminderPaymentDays != nil {
		s.SecondReminderPaymentDays = *dto.SecondReminderPaymentDays
	}
	if dto.FinalReminderPaymentDays != nil {
		s.FinalReminderPaymentDays = *dto.FinalReminderPaymentDays
	}
	if dto.AutoSendReminders != nil {
		s.AutoSendReminders = *dto.AutoSendReminders
	}
	if dto.AutoEscalate != nil {
		s.AutoEscalate = *dto.AutoEscalate
	}
}

// ListFilter narrows the reminder listing.
type ListFilter struct {
	Status     Status
	Level      Level
	CustomerID string
}
