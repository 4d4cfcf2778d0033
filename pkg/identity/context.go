package identity

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

type contextKey struct{}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(contextKey{}).(string)
	return userID
}

// LoggerExtractor adds user_id to log records of authenticated requests.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if userID := UserIDFromContext(ctx); userID != "" {
			return logger.UserID(userID), true
		}
		return slog.Attr{}, false
	}
}
