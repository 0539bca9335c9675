package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/core/events"
	"github.com/cflux/backoffice/internal/reminder"
	reminderpg "github.com/cflux/backoffice/internal/reminder/postgres"
	"github.com/cflux/backoffice/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers, currently the dunning worker that auto-sends payment reminders.`,
}

var dunningWorkerCmd = &cobra.Command{
	Use:   "dunning",
	Short: "Start the dunning worker",
	Long:  `Periodically scans for overdue invoices and sends the suggested reminder when auto-send is enabled in the reminder settings.`,
	Run: func(cmd *cobra.Command, args []string) {
		startDunningWorker()
	},
}

var scanInterval time.Duration

func init() {
	dunningWorkerCmd.Flags().DurationVar(&scanInterval, "interval", time.Hour, "how often to scan for overdue invoices")
	workerCmd.AddCommand(dunningWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}

func startDunningWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(appLogger)
	service := reminder.NewService(reminderpg.NewReminderRepository(gormDB), bus, appLogger)

	appLogger.Info("dunning worker started", "interval", scanInterval)

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	runDunningScan(service, appLogger)
	for {
		select {
		case <-ticker.C:
			runDunningScan(service, appLogger)
		case sig := <-sigChan:
			appLogger.Info("received signal, shutting down dunning worker", "signal", sig)
			return
		}
	}
}

func runDunningScan(service *reminder.Service, appLogger *slog.Logger) {
	settings, err := service.GetSettings()
	if err != nil {
		appLogger.Error("dunning scan: failed to load settings", "error", err)
		return
	}
	if !settings.AutoSendReminders {
		appLogger.Info("dunning scan skipped: auto-send disabled")
		return
	}

	overdue, err := service.OverdueInvoices()
	if err != nil {
		appLogger.Error("dunning scan failed", "error", err)
		return
	}

	sent := 0
	for _, inv := range overdue {
		if !inv.ShouldSendReminder {
			continue
		}

		dueDate := time.Now().AddDate(0, 0, paymentDaysForLevel(inv.SuggestedLevel, settings))
		rem, err := service.CreateReminder(&reminder.CreateReminderDTO{
			InvoiceID:   inv.ID,
			Level:       inv.SuggestedLevel,
			DueDate:     dueDate.Format("2006-01-02"),
			ReminderFee: &inv.SuggestedFee,
		})
		if err != nil {
			appLogger.Error("dunning scan: failed to create reminder", "invoice_id", inv.ID, "error", err)
			continue
		}

		ctx, cancel := internal.WithTimeout(context.Background(), 30*time.Second)
		_, err = service.SendReminder(ctx, rem.ID, "system")
		cancel()
		if err != nil {
			appLogger.Error("dunning scan: failed to send reminder", "reminder_id", rem.ID, "error", err)
			continue
		}
		sent++
	}

	appLogger.Info("dunning scan finished", "overdue", len(overdue), "sent", sent)
}

func paymentDaysForLevel(level reminder.Level, settings *reminder.Settings) int {
	switch level {
	case reminder.LevelSecond:
		return settings.SecondReminderPaymentDays
	case reminder.LevelFinal:
		return settings.FinalReminderPaymentDays
	default:
		return settings.FirstReminderPaymentDays
	}
}
