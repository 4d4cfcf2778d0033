package eventbus

// Config holds the event bus settings loaded from the environment.
type Config struct {
	// MaxListeners is the soft per-kind listener limit.
	MaxListeners int `env:"EVENTBUS_MAX_LISTENERS" envDefault:"100"`
	// RedisChannel is the Pub/Sub channel used by the cross-instance relay.
	RedisChannel string `env:"EVENTBUS_REDIS_CHANNEL" envDefault:"notifystream:events"`
	// RelayEnabled turns on the Redis relay between instances.
	RelayEnabled bool `env:"EVENTBUS_REDIS_RELAY" envDefault:"false"`
}
