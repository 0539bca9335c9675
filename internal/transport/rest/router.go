package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/cflux/backoffice/internal/attachment"
	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/backup"
	"github.com/cflux/backoffice/internal/document"
	"github.com/cflux/backoffice/internal/module"
	"github.com/cflux/backoffice/internal/reminder"
	"github.com/cflux/backoffice/internal/transport/middleware"
	"github.com/cflux/backoffice/internal/transport/swagger"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	Module     *module.Handler
	Document   *document.Handler
	Attachment *attachment.Handler
	Backup     *backup.Handler
	Reminder   *reminder.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers *Handlers, moduleService *module.Service, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", handlers.Auth.Login)
			sr.Post("/refresh", handlers.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			pr.Get("/auth/me", handlers.Auth.Me)

			pr.Route("/modules", func(mr chi.Router) {
				mr.Get("/user", handlers.Module.UserModules)
				mr.Get("/", handlers.Module.ListModules)
				mr.Get("/{moduleId}", handlers.Module.GetModule)

				mr.Group(func(ar chi.Router) {
					ar.Use(middleware.RequireAdmin(logger))
					ar.Post("/", handlers.Module.CreateModule)
					ar.Patch("/{moduleId}", handlers.Module.UpdateModule)
					ar.Delete("/{moduleId}", handlers.Module.DeleteModule)
					ar.Get("/{moduleId}/access", handlers.Module.GroupsForModule)
					ar.Post("/access", handlers.Module.GrantAccess)
					ar.Patch("/access/{accessId}", handlers.Module.UpdateAccess)
					ar.Delete("/access/{accessId}", handlers.Module.RevokeAccess)
					ar.Get("/access/group/{groupId}", handlers.Module.AccessByGroup)
				})
			})

			pr.Route("/document-nodes", func(dr chi.Router) {
				dr.Use(middleware.RequireModuleAccess(moduleService, logger, document.ModuleKey, module.ActionView))

				dr.Get("/", handlers.Document.GetTree)
				dr.Post("/", handlers.Document.CreateNode)
				dr.Get("/{nodeId}", handlers.Document.GetNode)
				dr.Patch("/{nodeId}", handlers.Document.UpdateNode)
				dr.Delete("/{nodeId}", handlers.Document.DeleteNode)
				dr.Get("/{nodeId}/versions", handlers.Document.ListVersions)

				dr.Get("/{nodeId}/attachments", handlers.Attachment.ListAttachments)
				dr.Post("/{nodeId}/attachments", handlers.Attachment.UploadAttachment)
			})

			pr.Route("/attachments", func(ar chi.Router) {
				ar.Use(middleware.RequireModuleAccess(moduleService, logger, document.ModuleKey, module.ActionView))

				ar.Put("/{attachmentId}", handlers.Attachment.UpdateAttachment)
				ar.Delete("/{attachmentId}", handlers.Attachment.DeleteAttachment)
				ar.Patch("/{attachmentId}", handlers.Attachment.UpdateMetadata)
				ar.Get("/{attachmentId}/download", handlers.Attachment.DownloadAttachment)
				ar.Get("/{attachmentId}/versions", handlers.Attachment.ListVersions)
				ar.Get("/versions/{versionId}/download", handlers.Attachment.DownloadVersion)
			})

			pr.Route("/intranet/search", func(sr chi.Router) {
				sr.Get("/", handlers.Document.SearchIntranet)
				sr.Get("/suggestions", handlers.Document.SearchSuggestions)
			})

			pr.Route("/backup", func(br chi.Router) {
				br.Use(middleware.RequireAdmin(logger))

				br.Post("/create", handlers.Backup.CreateBackup)
				br.Get("/list", handlers.Backup.ListBackups)
				br.Get("/export", handlers.Backup.ExportBackup)
				br.Get("/download/{filename}", handlers.Backup.DownloadBackup)
				br.Post("/restore/{filename}", handlers.Backup.RestoreBackup)
				br.Post("/upload", handlers.Backup.UploadBackup)
				br.Delete("/{filename}", handlers.Backup.DeleteBackup)
			})

			pr.Route("/reminders", func(rr chi.Router) {
				rr.Get("/", handlers.Reminder.ListReminders)
				rr.Post("/", handlers.Reminder.CreateReminder)
				rr.Get("/stats", handlers.Reminder.GetStats)
				rr.Get("/settings", handlers.Reminder.GetSettings)
				rr.Put("/settings/{settingsId}", handlers.Reminder.UpdateSettings)
				rr.Get("/overdue-invoices", handlers.Reminder.OverdueInvoices)
				rr.Get("/{reminderId}", handlers.Reminder.GetReminder)
				rr.Patch("/{reminderId}", handlers.Reminder.UpdateReminder)
				rr.Delete("/{reminderId}", handlers.Reminder.DeleteReminder)
				rr.Post("/{reminderId}/send", handlers.Reminder.SendReminder)
				rr.Post("/{reminderId}/mark-paid", handlers.Reminder.MarkPaid)
			})

			pr.Get("/invoices/{invoiceId}/reminders", handlers.Reminder.RemindersByInvoice)
		})
	})
}
