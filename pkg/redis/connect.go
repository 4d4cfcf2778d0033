package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Connect opens a client and pings it, retrying RetryAttempts times with a
// linearly growing pause. The whole attempt is bounded by ConnectTimeout.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	log = logger.OrDiscard(log)
	attempts := max(cfg.RetryAttempts, 1)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: cfg.RetryInterval}, uint64(attempts-1)),
		ctx,
	)

	var client *redis.Client
	err = backoff.RetryNotify(func() error {
		c := redis.NewClient(opts)
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	}, policy, func(err error, next time.Duration) {
		log.LogAttrs(ctx, slog.LevelWarn, "Redis is not ready, retrying",
			logger.Duration(next),
			logger.Error(err),
		)
	})
	if err != nil {
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	return client, nil
}

// linearBackOff waits step, 2*step, 3*step and so on.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() { b.n = 0 }
