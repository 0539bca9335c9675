package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/attachment"
	attachmentpg "github.com/cflux/backoffice/internal/attachment/postgres"
	"github.com/cflux/backoffice/internal/auth"
	authpg "github.com/cflux/backoffice/internal/auth/postgres"
	"github.com/cflux/backoffice/internal/backup"
	backuppg "github.com/cflux/backoffice/internal/backup/postgres"
	"github.com/cflux/backoffice/internal/core/events"
	"github.com/cflux/backoffice/internal/document"
	documentpg "github.com/cflux/backoffice/internal/document/postgres"
	"github.com/cflux/backoffice/internal/module"
	modulepg "github.com/cflux/backoffice/internal/module/postgres"
	"github.com/cflux/backoffice/internal/reminder"
	reminderpg "github.com/cflux/backoffice/internal/reminder/postgres"
	"github.com/cflux/backoffice/internal/transport/rest"
	"github.com/cflux/backoffice/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config        *internal.Config
	DB            *sqlx.DB
	GormDB        *gorm.DB
	Router        *chi.Mux
	Handlers      *rest.Handlers
	ModuleService *module.Service
	Logger        *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.ModuleService, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(appLogger)
	for _, eventType := range []string{
		events.EventTypeBackupCreated,
		events.EventTypeBackupRestored,
		events.EventTypeReminderSent,
	} {
		bus.Subscribe(eventType, events.AuditLogHandler(appLogger))
	}

	// auth
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpg.NewRepository(gormDB), tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	// module permissions
	moduleService := module.NewService(modulepg.NewModuleRepository(gormDB), appLogger)
	moduleHandler := module.NewHandler(moduleService)

	// intranet documents and search
	documentRepo := documentpg.NewDocumentRepository(gormDB)
	accessResolver := document.NewAccessResolver(documentRepo, appLogger)
	documentService := document.NewService(documentRepo, accessResolver, moduleService, appLogger)
	searchService := document.NewSearchService(documentRepo, accessResolver, moduleService, appLogger)
	documentHandler := document.NewHandler(documentService, searchService)

	// attachments
	fileStore := attachment.NewLocalStore(config.Storage.UploadDir, config.Storage.ArchiveDir())
	attachmentService := attachment.NewService(
		attachmentpg.NewAttachmentRepository(gormDB),
		fileStore,
		accessResolver,
		moduleService,
		appLogger,
	)
	attachmentHandler := attachment.NewHandler(attachmentService, config.Storage.MaxUploadSize)

	// backup
	backupService := backup.NewService(backuppg.NewBackupStore(gormDB), config.Storage.BackupDir, bus, appLogger)
	backupHandler := backup.NewHandler(backupService)

	// reminders
	reminderService := reminder.NewService(reminderpg.NewReminderRepository(gormDB), bus, appLogger)
	reminderHandler := reminder.NewHandler(reminderService)

	return &Dependencies{
		Config: config,
		Logger: appLogger,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Handlers: &rest.Handlers{
			Auth:       authHandler,
			Module:     moduleHandler,
			Document:   documentHandler,
			Attachment: attachmentHandler,
			Backup:     backupHandler,
			Reminder:   reminderHandler,
		},
		ModuleService: moduleService,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
