package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// HealthCheckHandler answers liveness checks when no checks are given
// ("ALIVE") and readiness checks otherwise ("READY", or 503 "NOT_READY" when
// a check fails).
func HealthCheckHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	log = logger.OrDiscard(log)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")

		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.LogAttrs(r.Context(), slog.LevelError, "Readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
