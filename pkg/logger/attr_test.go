package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestOptionalAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value any
	}{
		{"error", logger.Error(errors.New("boom")), "error", "boom"},
		{"user id", logger.UserID("u1"), "user_id", "u1"},
		{"request id", logger.RequestID("abc"), "request_id", "abc"},
		{"connection id", logger.ConnectionID("c1"), "connection_id", "c1"},
		{"notification id", logger.NotificationID(7), "notification_id", int64(7)},
		{"kind", logger.Kind("created"), "kind", "created"},
		{"state", logger.State("open"), "state", "open"},
		{"count", logger.Count(3), "count", int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.key, tt.attr.Key)
			if err, ok := tt.attr.Value.Any().(error); ok {
				assert.Equal(t, tt.value, err.Error())
				return
			}
			assert.Equal(t, tt.value, tt.attr.Value.Any())
		})
	}
}

func TestEmptyAttrs(t *testing.T) {
	for name, attr := range map[string]slog.Attr{
		"error":           logger.Error(nil),
		"user id":         logger.UserID(""),
		"request id":      logger.RequestID(""),
		"connection id":   logger.ConnectionID(""),
		"notification id": logger.NotificationID(0),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, attr.Equal(slog.Attr{}))
		})
	}
}
