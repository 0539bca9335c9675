package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/reminder"
)

// ReminderRepository implements reminder.Repository using GORM.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) reminder.Repository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) GetInvoice(id string) (*reminder.Invoice, error) {
	var inv reminder.Invoice
	err := r.db.Where("id = ?", id).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reminder.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *ReminderRepository) UpdateInvoiceStatus(invoiceID, status string) error {
	return r.db.Model(&reminder.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *ReminderRepository) OverdueInvoices(today time.Time) ([]reminder.InvoiceWithReminders, error) {
	var invoices []reminder.Invoice
	err := r.db.Where("status IN ?", []string{"SENT", "OVERDUE"}).
		Where("due_date < ?", today).
		Order("due_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	result := make([]reminder.InvoiceWithReminders, 0, len(invoices))
	for _, inv := range invoices {
		var customer reminder.CustomerInfo
		if err := r.db.Table("customers").
			Select("id, name, email").
			Where("id = ?", inv.CustomerID).
			Scan(&customer).Error; err != nil {
			return nil, err
		}

		var reminders []reminder.Reminder
		if err := r.db.Where("invoice_id = ?", inv.ID).
			Order("reminder_date DESC").
			Find(&reminders).Error; err != nil {
			return nil, err
		}

		result = append(result, reminder.InvoiceWithReminders{
			Invoice:   inv,
			Customer:  customer,
			Reminders: reminders,
		})
	}
	return result, nil
}

func (r *ReminderRepository) ListReminders(filter reminder.ListFilter) ([]reminder.Reminder, error) {
	q := r.db.Order("reminder_date DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if filter.CustomerID != "" {
		q = q.Where("invoice_id IN (?)",
			r.db.Table("invoices").Select("id").Where("customer_id = ?", filter.CustomerID))
	}

	var reminders []reminder.Reminder
	err := q.Find(&reminders).Error
	return reminders, err
}

func (r *ReminderRepository) GetReminderByID(id string) (*reminder.Reminder, error) {
	var rem reminder.Reminder
	err := r.db.Where("id = ?", id).First(&rem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reminder.ErrReminderNotFound
		}
		return nil, err
	}
	return &rem, nil
}

func (r *ReminderRepository) RemindersByInvoice(invoiceID string) ([]reminder.Reminder, error) {
	var reminders []reminder.Reminder
	err := r.db.Where("invoice_id = ?", invoiceID).
		Order("reminder_date ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *ReminderRepository) LastReminderNumber(prefix string) (string, error) {
	var number string
	err := r.db.Model(&reminder.Reminder{}).
		Select("reminder_number").
		Where("reminder_number LIKE ?", prefix+"%").
		Order("reminder_number DESC").
		Limit(1).
		Scan(&number).Error
	return number, err
}

func (r *ReminderRepository) CreateReminder(rem *reminder.Reminder) error {
	return r.db.Create(rem).Error
}

func (r *ReminderRepository) UpdateReminder(rem *reminder.Reminder) error {
	return r.db.Save(rem).Error
}

func (r *ReminderRepository) DeleteReminder(id string) error {
	return r.db.Where("id = ?", id).Delete(&reminder.Reminder{}).Error
}

func (r *ReminderRepository) GetSettings() (*reminder.Settings, error) {
	var settings reminder.Settings
	err := r.db.First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *ReminderRepository) GetSettingsByID(id string) (*reminder.Settings, error) {
	var settings reminder.Settings
	err := r.db.Where("id = ?", id).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reminder.ErrSettingsNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (r *ReminderRepository) CreateSettings(s *reminder.Settings) error {
	return r.db.Create(s).Error
}

func (r *ReminderRepository) UpdateSettings(s *reminder.Settings) error {
	return r.db.Save(s).Error
}

func (r *ReminderRepository) CountByStatus() (map[reminder.Status]int, error) {
	var rows []struct {
		Status reminder.Status
		Count  int
	}
	err := r.db.Model(&reminder.Reminder{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[reminder.Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *ReminderRepository) CountByLevel() (map[reminder.Level]int, error) {
	var rows []struct {
		Level reminder.Level
		Count int
	}
	err := r.db.Model(&reminder.Reminder{}).
		Select("level, COUNT(*) AS count").
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[reminder.Level]int, len(rows))
	for _, row := range rows {
		out[row.Level] = row.Count
	}
	return out, nil
}

func (r *ReminderRepository) SumFees() (float64, float64, error) {
	var row struct {
		Fees     float64
		Interest float64
	}
	err := r.db.Model(&reminder.Reminder{}).
		Select("COALESCE(SUM(reminder_fee), 0) AS fees, COALESCE(SUM(interest_amount), 0) AS interest").
		Scan(&row).Error
	return row.Fees, row.Interest, err
}
