package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/notifystream/pkg/httpserver"
	"github.com/dmitrymomot/notifystream/pkg/identity"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/ratelimiter"
	"github.com/dmitrymomot/notifystream/pkg/requestid"
)

// Deps are the components the router serves.
type Deps struct {
	Service       *notifications.Service
	Connections   Connections
	Authenticator *identity.Authenticator
	// Stream serves the event stream, usually a *session.Server.
	Stream http.Handler
	// Metrics serves the Prometheus scrape endpoint. Optional.
	Metrics http.Handler
	// Ready backs the readiness endpoint.
	Ready []httpserver.Check
	// Limiter throttles authenticated callers per user. Optional.
	Limiter *ratelimiter.Bucket
}

// Option configures the router.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	adminToken string
}

// WithLogger sets the logger for request and error logs. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = logger.OrDiscard(l) }
}

// WithAdminToken enables the operational routes for callers sending token
// in X-Admin-Token.
func WithAdminToken(token string) Option {
	return func(o *options) { o.adminToken = token }
}

// NewRouter builds the HTTP surface:
//
//	GET    /api/notifications
//	POST   /api/notifications            (admin)
//	GET    /api/notifications/unread-count
//	GET    /api/notifications/stream
//	GET    /api/notifications/stats      (admin)
//	POST   /api/notifications/broadcast  (admin)
//	POST   /api/notifications/read-all
//	POST   /api/notifications/{id}/read
//	DELETE /api/notifications/read
//	DELETE /api/notifications/{id}
//	GET    /health/live, /health/ready, /metrics
func NewRouter(deps Deps, opts ...Option) http.Handler {
	o := options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger

	nh := notificationHandlers{service: deps.Service, logger: log}
	ah := adminHandlers{connections: deps.Connections, logger: log}
	authenticate := identity.Middleware(deps.Authenticator, func(w http.ResponseWriter, r *http.Request, err error) {
		respondError(log, w, r, err)
	})
	admin := adminOnly(o.adminToken, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { respondError(log, w, r, ErrNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { respondError(log, w, r, ErrMethodNotAllowed) })

	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, deps.Ready...))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/notifications", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", nh.create)
			r.Get("/stats", ah.stats)
			r.Post("/broadcast", ah.broadcast)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			if deps.Limiter != nil {
				r.Use(perUserLimit(deps.Limiter, log))
			}
			r.Get("/", nh.list)
			r.Get("/unread-count", nh.unreadCount)
			if deps.Stream != nil {
				r.Method(http.MethodGet, "/stream", deps.Stream)
			}
			r.Post("/read-all", nh.markAllRead)
			r.Post("/{id}/read", nh.markRead)
			r.Delete("/read", nh.deleteAllRead)
			r.Delete("/{id}", nh.delete)
		})
	})

	return r
}

func perUserLimit(b *ratelimiter.Bucket, log *slog.Logger) func(http.Handler) http.Handler {
	return ratelimiter.Middleware(b,
		func(r *http.Request) string { return identity.UserIDFromContext(r.Context()) },
		func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
			respondError(log, w, r, ErrTooManyRequests)
		},
		func(w http.ResponseWriter, r *http.Request, err error) {
			respondError(log, w, r, err)
		},
	)
}

// requestLogger logs every finished request at debug level. Streams are
// logged when they end.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.LogAttrs(r.Context(), slog.LevelDebug, "Request served",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					logger.Duration(time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
