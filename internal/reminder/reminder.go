package reminder

import (
	"time"

	"github.com/cflux/backoffice/internal"
)

type Level string

const (
	LevelFirst  Level = "FIRST_REMINDER"
	LevelSecond Level = "SECOND_REMINDER"
	LevelFinal  Level = "FINAL_REMINDER"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusEscalated Status = "ESCALATED"
	StatusCancelled Status = "CANCELLED"
)

// Reminder is one dunning notice for an overdue invoice.
type Reminder struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	InvoiceID      string     `json:"invoice_id" gorm:"column:invoice_id;not null"`
	ReminderNumber string     `json:"reminder_number" gorm:"column:reminder_number;uniqueIndex;not null"`
	Level          Level      `json:"level" gorm:"default:FIRST_REMINDER"`
	Status         Status     `json:"status" gorm:"default:PENDING"`
	ReminderDate   time.Time  `json:"reminder_date" gorm:"column:reminder_date"`
	DueDate        time.Time  `json:"due_date" gorm:"column:due_date"`
	OriginalAmount float64    `json:"original_amount" gorm:"column:original_amount"`
	ReminderFee    float64    `json:"reminder_fee" gorm:"column:reminder_fee"`
	InterestAmount float64    `json:"interest_amount" gorm:"column:interest_amount"`
	TotalAmount    float64    `json:"total_amount" gorm:"column:total_amount"`
	InterestRate   float64    `json:"interest_rate" gorm:"column:interest_rate;default:5.0"`
	Subject        *string    `json:"subject,omitempty"`
	Message        *string    `json:"message,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	SentDate       *time.Time `json:"sent_date,omitempty" gorm:"column:sent_date"`
	SentBy         *string    `json:"sent_by,omitempty" gorm:"column:sent_by"`
	PaidDate       *time.Time `json:"paid_date,omitempty" gorm:"column:paid_date"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Reminder) TableName() string {
	return "reminders"
}

// Invoice is the slice of the invoice record the dunning engine needs.
type Invoice struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	InvoiceNumber string    `json:"invoice_number" gorm:"column:invoice_number"`
	CustomerID    string    `json:"customer_id" gorm:"column:customer_id"`
	InvoiceDate   time.Time `json:"invoice_date" gorm:"column:invoice_date"`
	DueDate       time.Time `json:"due_date" gorm:"column:due_date"`
	TotalAmount   float64   `json:"total_amount" gorm:"column:total_amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Settings holds the configurable dunning thresholds, fees and grace
// periods. A single row is lazily created with defaults on first read.
type Settings struct {
	ID                       string    `json:"id" gorm:"primaryKey"`
	FirstReminderDays        int       `json:"first_reminder_days" gorm:"column:first_reminder_days;default:7"`
	SecondReminderDays       int       `json:"second_reminder_days" gorm:"column:second_reminder_days;default:14"`
	FinalReminderDays        int       `json:"final_reminder_days" gorm:"column:final_reminder_days;default:21"`
	FirstReminderFee         float64   `json:"first_reminder_fee" gorm:"column:first_reminder_fee;default:5"`
	SecondReminderFee        float64   `json:"second_reminder_fee" gorm:"column:second_reminder_fee;default:10"`
	FinalReminderFee         float64   `json:"final_reminder_fee" gorm:"column:final_reminder_fee;default:15"`
	DefaultInterestRate      float64   `json:"default_interest_rate" gorm:"column:default_interest_rate;default:5"`
	FirstReminderPaymentDays int       `json:"first_reminder_payment_days" gorm:"column:first_reminder_payment_days;default:14"`
	SecondReminderPaymentDays int      `json:"second_reminder_payment_days" gorm:"column:second_reminder_payment_days;default:10"`
	FinalReminderPaymentDays int       `json:"final_reminder_payment_days" gorm:"column:final_reminder_payment_days;default:7"`
	AutoSendReminders        bool      `json:"auto_send_reminders" gorm:"column:auto_send_reminders;default:false"`
	AutoEscalate             bool      `json:"auto_escalate" gorm:"column:auto_escalate;default:false"`
	CreatedAt                time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt                time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Settings) TableName() string {
	return "reminder_settings"
}

// DefaultSettings are applied when no settings row exists yet.
func DefaultSettings() *Settings {
	return &Settings{
		FirstReminderDays:         7,
		SecondReminderDays:        14,
		FinalReminderDays:         21,
		FirstReminderFee:          5.0,
		SecondReminderFee:         10.0,
		FinalReminderFee:          15.0,
		DefaultInterestRate:       5.0,
		FirstReminderPaymentDays:  14,
		SecondReminderPaymentDays: 10,
		FinalReminderPaymentDays:  7,
	}
}

// CustomerInfo is the joined customer summary for list responses.
type CustomerInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

// InvoiceWithReminders pairs an invoice with its entire dunning history.
type InvoiceWithReminders struct {
	Invoice
	Customer  CustomerInfo `json:"customer"`
	Reminders []Reminder   `json:"reminders"`
}

// OverdueInvoice decorates an overdue invoice with the escalation
// suggestion computed from the settings.
type OverdueInvoice struct {
	InvoiceWithReminders
	DaysPastDue        int       `json:"daysPastDue"`
	ReminderCount      int       `json:"reminderCount"`
	LastReminder       *Reminder `json:"lastReminder,omitempty"`
	SuggestedLevel     Level     `json:"suggestedLevel"`
	SuggestedFee       float64   `json:"suggestedFee"`
	ShouldSendReminder bool      `json:"shouldSendReminder"`
}

// Stats summarizes the dunning ledger.
type Stats struct {
	TotalReminders int                `json:"totalReminders"`
	ByStatus       map[Status]int     `json:"byStatus"`
	ByLevel        map[Level]int      `json:"byLevel"`
	TotalFees      float64            `json:"totalFees"`
	TotalInterest  float64            `json:"totalInterest"`
}

var (
	ErrReminderNotFound = internal.NewNotFoundError("Reminder not found", internal.ErrCodeReminderNotFound)
	ErrInvoiceNotFound  = internal.NewNotFoundError("Invoice not found", internal.ErrCodeInvoiceNotFound)
	ErrSettingsNotFound = internal.NewNotFoundError("Reminder settings not found", internal.ErrCodeSettingsNotFound)
)

// allowedTransitions is the strict dunning state machine. Skipping a
// state is rejected with a validation error.
var allowedTransitions = map[Status][]Status{
	StatusPending: {StatusSent, StatusCancelled},
	StatusSent:    {StatusPaid, StatusEscalated},
}

func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
