package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/registry"
)

// ErrorHandler writes the response for a stream request that was rejected
// before any frame was sent.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, status int, err error)

// DefaultErrorHandler answers with {"error":{"code":...,"message":...}}.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, status int, _ error) {
	text := http.StatusText(status)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    strings.ReplaceAll(strings.ToLower(text), " ", "_"),
			"message": text,
		},
	})
}

// ServeHTTP opens a text/event-stream response for the authenticated caller
// and blocks until the session ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		s.onError(w, r, http.StatusInternalServerError, ErrStreamingUnsupported)
		return
	}

	conn := newStreamConn(uuid.NewString(), w, r, s.clock, s.writeTimeout)
	err := s.Serve(r.Context(), r, conn)
	if err == nil || conn.Started() {
		return
	}

	status := http.StatusInternalServerError
	level := slog.LevelError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		status, level = http.StatusUnauthorized, slog.LevelDebug
	case errors.Is(err, registry.ErrTooManyConnections):
		status, level = http.StatusTooManyRequests, slog.LevelWarn
	case errors.Is(err, registry.ErrClosed):
		status, level = http.StatusServiceUnavailable, slog.LevelInfo
	}

	s.logger.LogAttrs(r.Context(), level, "Stream request rejected",
		logger.ConnectionID(conn.ID()),
		slog.Int("status", status),
		logger.Error(err),
	)
	s.onError(w, r, status, err)
}
