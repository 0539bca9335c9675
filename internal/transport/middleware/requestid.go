package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cflux/backoffice/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID tags every request with a trace ID, honoring one supplied by
// the caller. The ID rides along in the request-scoped logger and is
// echoed on the response so clients can correlate.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceHeader, traceID)

		ctx := logger.With(r.Context(), "traceID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
