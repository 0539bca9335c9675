package reminder_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cflux/backoffice/internal/reminder"
)

func TestReminderService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reminder Service Suite")
}

// mockReminderRepository implements reminder.Repository for testing
type mockReminderRepository struct {
	invoices        map[string]*reminder.Invoice
	invoiceStatuses map[string]string
	reminders       map[string]*reminder.Reminder
	order           []string
	overdue         []reminder.InvoiceWithReminders
	settings        *reminder.Settings
	createError     error
}

func newMockReminderRepository() *mockReminderRepository {
	return &mockReminderRepository{
		invoices:        make(map[string]*reminder.Invoice),
		invoiceStatuses: make(map[string]string),
		reminders:       make(map[string]*reminder.Reminder),
	}
}

func (m *mockReminderRepository) GetInvoice(id string) (*reminder.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, reminder.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *mockReminderRepository) UpdateInvoiceStatus(invoiceID, status string) error {
	m.invoiceStatuses[invoiceID] = status
	return nil
}

func (m *mockReminderRepository) OverdueInvoices(today time.Time) ([]reminder.InvoiceWithReminders, error) {
	return m.overdue, nil
}

func (m *mockReminderRepository) ListReminders(filter reminder.ListFilter) ([]reminder.Reminder, error) {
	var result []reminder.Reminder
	for _, id := range m.order {
		rem := m.reminders[id]
		if filter.Status != "" && rem.Status != filter.Status {
			continue
		}
		if filter.Level != "" && rem.Level != filter.Level {
			continue
		}
		result = append(result, *rem)
	}
	return result, nil
}

func (m *mockReminderRepository) GetReminderByID(id string) (*reminder.Reminder, error) {
	rem, ok := m.reminders[id]
	if !ok {
		return nil, reminder.ErrReminderNotFound
	}
	return rem, nil
}

func (m *mockReminderRepository) RemindersByInvoice(invoiceID string) ([]reminder.Reminder, error) {
	var result []reminder.Reminder
	for _, id := range m.order {
		if m.reminders[id].InvoiceID == invoiceID {
			result = append(result, *m.reminders[id])
		}
	}
	return result, nil
}

func (m *mockReminderRepository) LastReminderNumber(prefix string) (string, error) {
	last := ""
	for _, id := range m.order {
		number := m.reminders[id].ReminderNumber
		if len(number) >= len(prefix) && number[:len(prefix)] == prefix && number > last {
			last = number
		}
	}
	return last, nil
}

func (m *mockReminderRepository) CreateReminder(r *reminder.Reminder) error {
	if m.createError != nil {
		return m.createError
	}
	m.reminders[r.ID] = r
	m.order = append(m.order, r.ID)
	return nil
}

func (m *mockReminderRepository) UpdateReminder(r *reminder.Reminder) error {
	m.reminders[r.ID] = r
	return nil
}

func (m *mockReminderRepository) DeleteReminder(id string) error {
	delete(m.reminders, id)
	return nil
}

func (m *mockReminderRepository) GetSettings() (*reminder.Settings, error) {
	return m.settings, nil
}

func (m *mockReminderRepository) GetSettingsByID(id string) (*reminder.Settings, error) {
	if m.settings == nil || m.settings.ID != id {
		return nil, reminder.ErrSettingsNotFound
	}
	return m.settings, nil
}

func (m *mockReminderRepository) CreateSettings(s *reminder.Settings) error {
	m.settings = s
	return nil
}

func (m *mockReminderRepository) UpdateSettings(s *reminder.Settings) error {
	m.settings = s
	return nil
}

func (m *mockReminderRepository) CountByStatus() (map[reminder.Status]int, error) {
	result := make(map[reminder.Status]int)
	for _, rem := range m.reminders {
		result[rem.Status]++
	}
	return result, nil
}

func (m *mockReminderRepository) CountByLevel() (map[reminder.Level]int, error) {
	result := make(map[reminder.Level]int)
	for _, rem := range m.reminders {
		result[rem.Level]++
	}
	return result, nil
}

func (m *mockReminderRepository) SumFees() (float64, float64, error) {
	var fees, interest float64
	for _, rem := range m.reminders {
		fees += rem.ReminderFee
		interest += rem.InterestAmount
	}
	return fees, interest, nil
}

var _ = Describe("ReminderService", func() {
	var (
		repo    *mockReminderRepository
		service *reminder.Service
	)

	BeforeEach(func() {
		repo = newMockReminderRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = reminder.NewService(repo, nil, logger)

		repo.invoices["inv-1"] = &reminder.Invoice{
			ID: "inv-1", InvoiceNumber: "R-2026-001", CustomerID: "cust-1",
			TotalAmount: 1000, Status: "SENT",
			DueDate: time.Now().AddDate(0, 0, -10),
		}
	})

	Describe("CreateReminder", func() {
		It("should open the reminder at PENDING with a sequential number", func() {
			fee := 5.0
			rem, err := service.CreateReminder(&reminder.CreateReminderDTO{
				InvoiceID: "inv-1", DueDate: "2026-09-14", ReminderFee: &fee,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(rem.Status).To(Equal(reminder.StatusPending))
			Expect(rem.Level).To(Equal(reminder.LevelFirst))
			Expect(rem.ReminderNumber).To(HaveSuffix("-001"))
			Expect(rem.ReminderNumber).To(HavePrefix("M-"))
		})

		It("should continue the yearly number sequence", func() {
			first, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "2026-09-14"})
			Expect(err).NotTo(HaveOccurred())
			second, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "2026-09-21"})
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ReminderNumber).To(HaveSuffix("-001"))
			Expect(second.ReminderNumber).To(HaveSuffix("-002"))
		})

		It("should total the invoice amount plus fee and interest", func() {
			fee := 10.0
			interest := 4.5
			rem, err := service.CreateReminder(&reminder.CreateReminderDTO{
				InvoiceID: "inv-1", DueDate: "2026-09-14",
				ReminderFee: &fee, InterestAmount: &interest,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(rem.OriginalAmount).To(Equal(1000.0))
			Expect(rem.TotalAmount).To(Equal(1014.5))
		})

		It("should default the interest rate", func() {
			rem, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "2026-09-14"})

			Expect(err).NotTo(HaveOccurred())
			Expect(rem.InterestRate).To(Equal(5.0))
		})

		It("should reject an unknown invoice", func() {
			_, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "ghost", DueDate: "2026-09-14"})

			Expect(err).To(MatchError(reminder.ErrInvoiceNotFound))
		})

		It("should reject a malformed due date", func() {
			_, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "14.09.2026"})

			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown level", func() {
			_, err := service.CreateReminder(&reminder.CreateReminderDTO{
				InvoiceID: "inv-1", DueDate: "2026-09-14", Level: "THIRD_REMINDER",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateReminder", func() {
		var remID string

		BeforeEach(func() {
			fee := 5.0
			rem, err := service.CreateReminder(&reminder.CreateReminderDTO{
				InvoiceID: "inv-1", DueDate: "2026-09-14", ReminderFee: &fee,
			})
			Expect(err).NotTo(HaveOccurred())
			remID = rem.ID
		})

		It("should recompute the total when the fee changes", func() {
			fee := 15.0
			updated, err := service.UpdateReminder(remID, &reminder.UpdateReminderDTO{ReminderFee: &fee})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.TotalAmount).To(Equal(1015.0))
		})

		It("should reject skipping a state", func() {
			paid := reminder.StatusPaid
			_, err := service.UpdateReminder(remID, &reminder.UpdateReminderDTO{Status: &paid})

			Expect(err).To(HaveOccurred())
		})

		It("should allow cancelling a pending reminder", func() {
			cancelled := reminder.StatusCancelled
			updated, err := service.UpdateReminder(remID, &reminder.UpdateReminderDTO{Status: &cancelled})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(reminder.StatusCancelled))
		})
	})

	Describe("SendReminder", func() {
		var remID string

		BeforeEach(func() {
			rem, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "2026-09-14"})
			Expect(err).NotTo(HaveOccurred())
			remID = rem.ID
		})

		It("should move the reminder to SENT and flag the invoice overdue", func() {
			sent, err := service.SendReminder(context.Background(), remID, "user-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(sent.Status).To(Equal(reminder.StatusSent))
			Expect(sent.SentDate).NotTo(BeNil())
			Expect(*sent.SentBy).To(Equal("user-1"))
			Expect(repo.invoiceStatuses["inv-1"]).To(Equal("OVERDUE"))
		})

		It("should reject sending twice", func() {
			_, err := service.SendReminder(context.Background(), remID, "user-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SendReminder(context.Background(), remID, "user-1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("MarkPaid", func() {
		var remID string

		BeforeEach(func() {
			rem, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "2026-09-14"})
			Expect(err).NotTo(HaveOccurred())
			remID = rem.ID
		})

		It("should settle a sent reminder and its invoice", func() {
			_, err := service.SendReminder(context.Background(), remID, "user-1")
			Expect(err).NotTo(HaveOccurred())

			paid, err := service.MarkPaid(remID)

			Expect(err).NotTo(HaveOccurred())
			Expect(paid.Status).To(Equal(reminder.StatusPaid))
			Expect(paid.PaidDate).NotTo(BeNil())
			Expect(repo.invoiceStatuses["inv-1"]).To(Equal("PAID"))
		})

		It("should reject paying a reminder that was never sent", func() {
			_, err := service.MarkPaid(remID)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SuggestReminder", func() {
		var settings *reminder.Settings

		BeforeEach(func() {
			settings = reminder.DefaultSettings()
		})

		It("should suggest the first level before any reminder exists", func() {
			level, fee, shouldSend := reminder.SuggestReminder(0, 10, settings)

			Expect(level).To(Equal(reminder.LevelFirst))
			Expect(fee).To(Equal(settings.FirstReminderFee))
			Expect(shouldSend).To(BeTrue())
		})

		It("should hold off below the first threshold", func() {
			_, _, shouldSend := reminder.SuggestReminder(0, 6, settings)

			Expect(shouldSend).To(BeFalse())
		})

		It("should send exactly at the threshold", func() {
			_, _, shouldSend := reminder.SuggestReminder(0, settings.FirstReminderDays, settings)

			Expect(shouldSend).To(BeTrue())
		})

		It("should escalate to the second level after one reminder", func() {
			level, fee, shouldSend := reminder.SuggestReminder(1, 13, settings)

			Expect(level).To(Equal(reminder.LevelSecond))
			Expect(fee).To(Equal(settings.SecondReminderFee))
			Expect(shouldSend).To(BeFalse())

			_, _, shouldSend = reminder.SuggestReminder(1, 14, settings)
			Expect(shouldSend).To(BeTrue())
		})

		It("should suggest the final level for any further reminders", func() {
			level, fee, _ := reminder.SuggestReminder(2, 30, settings)
			Expect(level).To(Equal(reminder.LevelFinal))
			Expect(fee).To(Equal(settings.FinalReminderFee))

			level, _, _ = reminder.SuggestReminder(5, 90, settings)
			Expect(level).To(Equal(reminder.LevelFinal))
		})
	})

	Describe("CanTransition", func() {
		It("should allow only the strict state machine edges", func() {
			Expect(reminder.CanTransition(reminder.StatusPending, reminder.StatusSent)).To(BeTrue())
			Expect(reminder.CanTransition(reminder.StatusPending, reminder.StatusCancelled)).To(BeTrue())
			Expect(reminder.CanTransition(reminder.StatusSent, reminder.StatusPaid)).To(BeTrue())
			Expect(reminder.CanTransition(reminder.StatusSent, reminder.StatusEscalated)).To(BeTrue())

			Expect(reminder.CanTransition(reminder.StatusPending, reminder.StatusPaid)).To(BeFalse())
			Expect(reminder.CanTransition(reminder.StatusPaid, reminder.StatusSent)).To(BeFalse())
			Expect(reminder.CanTransition(reminder.StatusCancelled, reminder.StatusSent)).To(BeFalse())
		})
	})

	Describe("GetSettings", func() {
		Context("when no settings row exists", func() {
			It("should create one with defaults", func() {
				settings, err := service.GetSettings()

				Expect(err).NotTo(HaveOccurred())
				Expect(settings.ID).NotTo(BeEmpty())
				Expect(settings.FirstReminderDays).To(Equal(7))
				Expect(settings.FinalReminderFee).To(Equal(15.0))
				Expect(repo.settings).NotTo(BeNil())
			})
		})

		Context("when settings already exist", func() {
			It("should return the stored row", func() {
				repo.settings = reminder.DefaultSettings()
				repo.settings.ID = "st-1"
				repo.settings.FirstReminderDays = 3

				settings, err := service.GetSettings()

				Expect(err).NotTo(HaveOccurred())
				Expect(settings.ID).To(Equal("st-1"))
				Expect(settings.FirstReminderDays).To(Equal(3))
			})
		})
	})

	Describe("OverdueInvoices", func() {
		It("should decorate each invoice with the suggested escalation", func() {
			dueDate := time.Now().AddDate(0, 0, -15)
			repo.overdue = []reminder.InvoiceWithReminders{{
				Invoice: reminder.Invoice{
					ID: "inv-1", InvoiceNumber: "R-2026-001", TotalAmount: 1000,
					Status: "OVERDUE", DueDate: dueDate,
				},
				Reminders: []reminder.Reminder{{ID: "rem-1", Level: reminder.LevelFirst, Status: reminder.StatusSent}},
			}}

			result, err := service.OverdueInvoices()

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].ReminderCount).To(Equal(1))
			Expect(result[0].SuggestedLevel).To(Equal(reminder.LevelSecond))
			Expect(result[0].SuggestedFee).To(Equal(10.0))
			Expect(result[0].ShouldSendReminder).To(BeTrue())
			Expect(result[0].LastReminder.ID).To(Equal("rem-1"))
			Expect(result[0].DaysPastDue).To(BeNumerically("~", 15, 1))
		})
	})

	Describe("GetStats", func() {
		It("should aggregate counts and sums", func() {
			fee := 5.0
			interest := 2.0
			_, err := service.CreateReminder(&reminder.CreateReminderDTO{
				InvoiceID: "inv-1", DueDate: "2026-09-14", ReminderFee: &fee, InterestAmount: &interest,
			})
			Expect(err).NotTo(HaveOccurred())
			sent, err := service.CreateReminder(&reminder.CreateReminderDTO{
				InvoiceID: "inv-1", DueDate: "2026-09-21", ReminderFee: &fee,
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SendReminder(context.Background(), sent.ID, "user-1")
			Expect(err).NotTo(HaveOccurred())

			stats, err := service.GetStats()

			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalReminders).To(Equal(2))
			Expect(stats.ByStatus[reminder.StatusPending]).To(Equal(1))
			Expect(stats.ByStatus[reminder.StatusSent]).To(Equal(1))
			Expect(stats.ByLevel[reminder.LevelFirst]).To(Equal(2))
			Expect(stats.TotalFees).To(Equal(10.0))
			Expect(stats.TotalInterest).To(Equal(2.0))
		})
	})

	Describe("DeleteReminder", func() {
		It("should return not found for an unknown reminder", func() {
			err := service.DeleteReminder("missing")

			Expect(err).To(MatchError(reminder.ErrReminderNotFound))
		})
	})
})

var _ = Describe("ListFilter", func() {
	It("should narrow by status and level", func() {
		repo := newMockReminderRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service := reminder.NewService(repo, nil, logger)
		repo.invoices["inv-1"] = &reminder.Invoice{ID: "inv-1", TotalAmount: 100}

		_, err := service.CreateReminder(&reminder.CreateReminderDTO{InvoiceID: "inv-1", DueDate: "2026-09-14"})
		Expect(err).NotTo(HaveOccurred())
		second, err := service.CreateReminder(&reminder.CreateReminderDTO{
			InvoiceID: "inv-1", DueDate: "2026-09-21", Level: reminder.LevelSecond,
		})
		Expect(err).NotTo(HaveOccurred())

		result, err := service.ListReminders(reminder.ListFilter{Level: reminder.LevelSecond})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(HaveLen(1))
		Expect(result[0].ID).To(Equal(second.ID))
	})
})
