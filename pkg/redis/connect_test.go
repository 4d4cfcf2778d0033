package redis_test

import (
	"context"
	"net"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/redis"
)

func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     redis.Config
		wantErr error
	}{
		{
			name:    "empty url",
			cfg:     redis.Config{},
			wantErr: redis.ErrEmptyConnectionURL,
		},
		{
			name:    "malformed url",
			cfg:     redis.Config{ConnectionURL: "mysql://nope"},
			wantErr: redis.ErrFailedToParseRedisConnString,
		},
		{
			name: "unreachable server",
			cfg: redis.Config{
				ConnectionURL:  "redis://" + closedAddr(t) + "/0",
				RetryAttempts:  2,
				RetryInterval:  10 * time.Millisecond,
				ConnectTimeout: time.Second,
			},
			wantErr: redis.ErrRedisNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := redis.Connect(context.Background(), tt.cfg, nil)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, redis.Config{}.Enabled())
	assert.True(t, redis.Config{ConnectionURL: "redis://localhost:6379/0"}.Enabled())
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: closedAddr(t), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	err := redis.Healthcheck(client)(context.Background())
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}
