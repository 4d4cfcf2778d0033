package pg

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Connect opens a pool and pings it. Failed attempts are retried
// RetryAttempts times, waiting RetryInterval, then twice that, and so on.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = cfg.MaxOpenConns
	}
	poolCfg.MinConns = cfg.MaxIdleConns
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	log = logger.OrDiscard(log)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = max(cfg.RetryInterval, time.Millisecond)
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	var pool *pgxpool.Pool
	err = backoff.RetryNotify(func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(cfg.RetryAttempts-1, 0))), ctx),
		func(err error, next time.Duration) {
			log.LogAttrs(ctx, slog.LevelWarn, "Database is not ready, retrying",
				logger.Duration(next),
				logger.Error(err),
			)
		})
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}
	return pool, nil
}
