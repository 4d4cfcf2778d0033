// Package eventbus decouples notification producers from delivery.
//
// # Overview
//
// A Bus holds listeners per event kind (created, read, deleted, all-read).
// Publish calls every listener of the event's kind synchronously, in the
// order they subscribed; a listener that returns an error or panics is
// logged and skipped so the remaining listeners still run. Subscribe returns
// a Handle and Unsubscribe(handle) removes exactly that listener, any number
// of times. Listeners may subscribe or unsubscribe from inside Publish; the
// change applies to the next Publish.
//
// # Usage
//
//	bus := eventbus.New(eventbus.WithLogger(log))
//	h, _ := bus.Subscribe(eventbus.KindCreated, func(ctx context.Context, evt eventbus.Event) error {
//		return forward(evt)
//	})
//	defer bus.Unsubscribe(h)
//
//	producer := eventbus.NewProducer(bus)
//	_ = producer.PublishCreated(ctx, userID, n)
//
// Producer has one method per kind, so callers never build an Event by hand.
// It accepts any Publisher, which lets the notification service publish
// through a RedisRelay without knowing about it.
//
// # Relay
//
// RedisRelay forwards events between instances through a Redis Pub/Sub
// channel for deployments with more than one process:
//
//	relay := eventbus.NewRedisRelay(bus, rdb, eventbus.WithRelayChannel(cfg.RedisChannel))
//	go relay.Run(ctx)
//	producer := eventbus.NewProducer(relay)
//
// Publish on the relay delivers locally first and then sends the event to
// Redis; events received from Redis that this instance sent are ignored.
//
// # Configuration
//
//	EVENTBUS_MAX_LISTENERS  soft limit per kind, default 100
//	EVENTBUS_REDIS_RELAY    enable the relay, default false
//	EVENTBUS_REDIS_CHANNEL  default notifystream:events
//
// Crossing the listener limit only logs a warning.
//
// # Error Handling
//
// Subscribe fails with ErrUnknownKind or ErrNilListener. Publish fails with
// ErrUnknownKind, ErrMissingUserID or ErrMissingPayload before any listener
// runs. Listener failures, including ErrListenerPanic, are logged and counted
// through Metrics and never returned. RedisRelay.Publish wraps Redis errors
// in ErrRelayPublish after local delivery has already happened.
package eventbus
