package middleware

import (
	"log/slog"
	"net/http"

	"github.com/cflux/backoffice/internal/auth"
	"github.com/cflux/backoffice/internal/module"
)

// ModuleAccessChecker resolves whether a user may perform an action in a module.
type ModuleAccessChecker interface {
	CheckAccess(userID, moduleKey string, action module.Action) (bool, error)
}

// RequireModuleAccess gates a route on a module-level permission flag.
// Admins pass unconditionally inside the checker.
func RequireModuleAccess(checker ModuleAccessChecker, logger *slog.Logger, moduleKey string, action module.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			hasAccess, err := checker.CheckAccess(user.ID, moduleKey, action)
			if err != nil {
				logger.Error("module access check failed", "error", err,
					"user_id", user.ID, "module", moduleKey, "action", action)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !hasAccess {
				logger.Warn("access denied: missing module permission",
					"user_id", user.ID,
					"module", moduleKey,
					"action", action)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route on the ADMIN role. Backup endpoints use it.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.IsAdmin() {
				logger.Warn("access denied: admin role required", "user_id", user.ID)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
