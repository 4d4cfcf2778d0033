package session

import "time"

// Config holds the stream timing settings loaded from the environment.
type Config struct {
	// HeartbeatInterval is the period between keep-alive frames.
	HeartbeatInterval time.Duration `env:"SSE_HEARTBEAT_INTERVAL" envDefault:"30s"`
	// WriteTimeout bounds every single frame write.
	WriteTimeout time.Duration `env:"SSE_WRITE_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the configuration used when none is loaded.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
