package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/registry"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// AdminTokenHeader carries the operator token for internal routes.
const AdminTokenHeader = "X-Admin-Token"

// Connections is the part of registry.Registry the operational routes use.
type Connections interface {
	Stats() registry.Stats
	SendToAll(ctx context.Context, f sse.Frame) int
}

// BroadcastRequest is the body of the broadcast route.
type BroadcastRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type adminHandlers struct {
	connections Connections
	logger      *slog.Logger
}

func (h adminHandlers) stats(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, h.connections.Stats())
}

func (h adminHandlers) broadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if req.Event == "" {
		req.Event = sse.EventNotification
	}
	if len(req.Data) == 0 {
		req.Data = json.RawMessage("{}")
	}

	frame, err := sse.NewFrame(req.Event, req.Data)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	sent := h.connections.SendToAll(r.Context(), frame)
	h.logger.LogAttrs(r.Context(), slog.LevelInfo, "Broadcast sent",
		logger.Event(req.Event),
		logger.Count(sent),
	)
	respond(w, http.StatusOK, map[string]int{"sent": sent})
}

// adminOnly admits requests carrying the configured admin token. With no
// token configured every request is refused.
func adminOnly(token string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respondError(log, w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
