package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeBackupCreated  = "backup.created"
	EventTypeBackupRestored = "backup.restored"
	EventTypeReminderSent   = "reminder.sent"
)

type BackupCreatedEvent struct {
	BaseEvent
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
	TotalRecords int    `json:"total_records"`
	CreatedBy    string `json:"created_by"`
}

func NewBackupCreatedEvent(filename string, sizeBytes int64, totalRecords int, createdBy string) *BackupCreatedEvent {
	return &BackupCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBackupCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"filename":      filename,
				"size_bytes":    sizeBytes,
				"total_records": totalRecords,
				"created_by":    createdBy,
			},
		},
		Filename:     filename,
		SizeBytes:    sizeBytes,
		TotalRecords: totalRecords,
		CreatedBy:    createdBy,
	}
}

type BackupRestoredEvent struct {
	BaseEvent
	Filename        string `json:"filename"`
	RestoredRecords int    `json:"restored_records"`
	BackupVersion   string `json:"backup_version"`
	RestoredBy      string `json:"restored_by"`
}

func NewBackupRestoredEvent(filename string, restoredRecords int, backupVersion, restoredBy string) *BackupRestoredEvent {
	return &BackupRestoredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBackupRestored,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"filename":         filename,
				"restored_records": restoredRecords,
				"backup_version":   backupVersion,
				"restored_by":      restoredBy,
			},
		},
		Filename:        filename,
		RestoredRecords: restoredRecords,
		BackupVersion:   backupVersion,
		RestoredBy:      restoredBy,
	}
}

type ReminderSentEvent struct {
	BaseEvent
	ReminderID     string  `json:"reminder_id"`
	InvoiceID      string  `json:"invoice_id"`
	ReminderLevel  string  `json:"reminder_level"`
	TotalAmount    float64 `json:"total_amount"`
	SentBy         string  `json:"sent_by"`
	ReminderNumber string  `json:"reminder_number"`
}

func NewReminderSentEvent(reminderID, invoiceID, reminderLevel string, totalAmount float64, sentBy, reminderNumber string) *ReminderSentEvent {
	return &ReminderSentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeReminderSent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reminder_id":     reminderID,
				"invoice_id":      invoiceID,
				"reminder_level":  reminderLevel,
				"total_amount":    totalAmount,
				"sent_by":         sentBy,
				"reminder_number": reminderNumber,
			},
		},
		ReminderID:     reminderID,
		InvoiceID:      invoiceID,
		ReminderLevel:  reminderLevel,
		TotalAmount:    totalAmount,
		SentBy:         sentBy,
		ReminderNumber: reminderNumber,
	}
}
