package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// DefaultRelayChannel is the Redis Pub/Sub channel used when none is configured.
const DefaultRelayChannel = "notifystream:events"

// envelope is the message shape stored in Redis Pub/Sub.
type envelope struct {
	Origin string    `json:"origin"`
	Event  Event     `json:"event"`
	SentAt time.Time `json:"sentAt"`
}

// RedisRelay extends a local Bus across instances. Publish delivers to the
// local bus and then to a Redis channel; Run replays events published by
// other instances into the local bus. Each instance skips its own messages.
type RedisRelay struct {
	local   *Bus
	client  redis.UniversalClient
	channel string
	origin  string
	logger  *slog.Logger
}

// RelayOption configures a RedisRelay.
type RelayOption func(*RedisRelay)

// WithRelayChannel sets the Pub/Sub channel shared by all instances.
func WithRelayChannel(channel string) RelayOption {
	return func(r *RedisRelay) {
		if channel != "" {
			r.channel = channel
		}
	}
}

// WithRelayLogger sets the relay logger. Nil discards logs.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *RedisRelay) { r.logger = logger.OrDiscard(l) }
}

// NewRedisRelay binds local to the Redis client.
func NewRedisRelay(local *Bus, client redis.UniversalClient, opts ...RelayOption) *RedisRelay {
	r := &RedisRelay{
		local:   local,
		client:  client,
		channel: DefaultRelayChannel,
		origin:  uuid.NewString(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish delivers evt locally, then forwards it to the other instances.
// A Redis failure is returned wrapped in ErrRelayPublish after local delivery.
func (r *RedisRelay) Publish(ctx context.Context, evt Event) error {
	if err := r.local.Publish(ctx, evt); err != nil {
		return err
	}

	payload, err := json.Marshal(envelope{Origin: r.origin, Event: evt, SentAt: time.Now()})
	if err != nil {
		return errors.Join(ErrRelayPublish, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return errors.Join(ErrRelayPublish, err)
	}
	return nil
}

// Run subscribes to the relay channel and blocks until ctx is cancelled or
// the subscription fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "Event relay subscribed",
		slog.String("channel", r.channel),
		slog.String("origin", r.origin),
	)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

// handle replays a foreign envelope into the local bus.
func (r *RedisRelay) handle(ctx context.Context, payload string) bool {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping malformed relay message", logger.Error(err))
		return false
	}
	if env.Origin == r.origin {
		return false
	}
	if err := r.local.Publish(ctx, env.Event); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping invalid relayed event",
			slog.String("origin", env.Origin),
			logger.Error(err),
		)
		return false
	}
	return true
}
