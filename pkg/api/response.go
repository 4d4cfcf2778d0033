package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/requestid"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the error member of the envelope. Details lists field
// messages of validation errors.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, JSONResponse{Data: data})
}

func respondWithMeta(w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, JSONResponse{Data: data, Meta: meta})
}

// respondError writes the error envelope. Client errors are logged at Warn,
// server errors at Error.
func respondError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.LogAttrs(r.Context(), level, "Request failed",
		logger.RequestID(requestid.FromContext(r.Context())),
		slog.Int("status", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Error(err),
	)

	writeJSON(w, status, JSONResponse{Error: detail})
}
