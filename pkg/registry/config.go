package registry

// Config holds the connection caps loaded from the environment.
type Config struct {
	// MaxConnectionsPerUser caps simultaneous streams of one user (tabs, devices).
	MaxConnectionsPerUser int `env:"SSE_MAX_CONNECTIONS_PER_USER" envDefault:"10"`
	// MaxConnections caps simultaneous streams of the whole process.
	MaxConnections int `env:"SSE_MAX_CONNECTIONS" envDefault:"10000"`
}
