package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifystream/migrations"
	"github.com/dmitrymomot/notifystream/pkg/api"
	"github.com/dmitrymomot/notifystream/pkg/config"
	"github.com/dmitrymomot/notifystream/pkg/eventbus"
	"github.com/dmitrymomot/notifystream/pkg/httpserver"
	"github.com/dmitrymomot/notifystream/pkg/identity"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/metrics"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/pg"
	"github.com/dmitrymomot/notifystream/pkg/ratelimiter"
	"github.com/dmitrymomot/notifystream/pkg/redis"
	"github.com/dmitrymomot/notifystream/pkg/registry"
	"github.com/dmitrymomot/notifystream/pkg/requestid"
	"github.com/dmitrymomot/notifystream/pkg/session"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"notifystream"`
	LogLevel string `env:"LOG_LEVEL"`
}

type configs struct {
	app      appConfig
	http     httpserver.Config
	pg       pg.Config
	redis    redis.Config
	bus      eventbus.Config
	registry registry.Config
	session  session.Config
	identity identity.Config
	api      api.Config
	limit    ratelimiter.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfigs()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.app.Env, cfg.app.Name),
		logger.WithLevelName(cfg.app.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor(), identity.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	collector := metrics.New()
	bus := eventbus.NewFromConfig(cfg.bus, eventbus.WithLogger(log), eventbus.WithMetrics(collector))

	var ready []httpserver.Check
	storage, closeStorage, check, err := openStorage(ctx, cfg.pg, log)
	if err != nil {
		return err
	}
	defer closeStorage()
	if check != nil {
		ready = append(ready, check)
	}

	g, gctx := errgroup.WithContext(ctx)

	var publisher eventbus.Publisher = bus
	if cfg.bus.RelayEnabled {
		client, err := redis.Connect(ctx, cfg.redis, log)
		if err != nil {
			return fmt.Errorf("event relay: %w", err)
		}
		defer client.Close()

		relay := eventbus.NewRedisRelay(bus, client,
			eventbus.WithRelayChannel(cfg.bus.RedisChannel),
			eventbus.WithRelayLogger(log),
		)
		publisher = relay
		ready = append(ready, redis.Healthcheck(client))
		g.Go(func() error { return relay.Run(gctx) })
	}

	service := notifications.NewService(storage,
		notifications.WithPublisher(eventbus.NewProducer(publisher)),
		notifications.WithServiceLogger(log),
	)

	connections := registry.NewFromConfig(cfg.registry,
		registry.WithLogger(log),
		registry.WithMetrics(collector),
	)

	ids, err := identity.NewFromConfig(cfg.identity)
	if err != nil {
		return err
	}
	auth := identity.NewAuthenticator(ids, nil)

	stream := session.NewServer(connections, bus, auth,
		session.WithConfig(cfg.session),
		session.WithLogger(log),
		session.WithMetrics(collector),
	)

	metricsHandler, err := metrics.Handler(collector)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Service:       service,
		Connections:   connections,
		Authenticator: auth,
		Stream:        stream,
		Metrics:       metricsHandler,
		Ready:         ready,
	}
	if cfg.limit.Enabled() {
		store := ratelimiter.NewMemoryStore()
		defer store.Close()
		if deps.Limiter, err = ratelimiter.NewBucket(store, cfg.limit); err != nil {
			return err
		}
	}
	router := api.NewRouter(deps, api.WithLogger(log), api.WithAdminToken(cfg.api.AdminToken))

	srv := httpserver.NewFromConfig(cfg.http,
		httpserver.WithLogger(log),
		httpserver.WithDrainHook(func(ctx context.Context) {
			closed := connections.CloseAll()
			log.LogAttrs(ctx, slog.LevelInfo, "Closed streaming connections", logger.Count(closed))
		}),
	)
	g.Go(func() error { return srv.Run(gctx, router) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.LogAttrs(ctx, slog.LevelError, "Service stopped with error", logger.Error(err))
		return err
	}
	log.LogAttrs(ctx, slog.LevelInfo, "Service stopped")
	return nil
}

func loadConfigs() (configs, error) {
	var c configs
	err := errors.Join(
		config.Load(&c.app),
		config.Load(&c.http),
		config.Load(&c.pg),
		config.Load(&c.redis),
		config.Load(&c.bus),
		config.Load(&c.registry),
		config.Load(&c.session),
		config.Load(&c.identity),
		config.Load(&c.api),
		config.Load(&c.limit),
	)
	if err != nil {
		return configs{}, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}

// openStorage uses PostgreSQL when PG_CONN_URL is set and an in-memory store
// otherwise.
func openStorage(ctx context.Context, cfg pg.Config, log *slog.Logger) (notifications.Storage, func(), httpserver.Check, error) {
	if !cfg.Enabled() {
		log.LogAttrs(ctx, slog.LevelWarn, "PG_CONN_URL is not set, notifications are kept in memory")
		return notifications.NewMemoryStorage(), func() {}, nil, nil
	}

	pool, err := pg.Connect(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return notifications.NewPostgresStorage(pool), pool.Close, pg.Healthcheck(pool), nil
}
