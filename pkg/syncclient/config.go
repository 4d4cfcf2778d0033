package syncclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds the client settings loaded from the environment.
type Config struct {
	BaseURL           string        `env:"NOTIFY_BASE_URL" envDefault:"http://localhost:8080"`
	ReconnectDelay    time.Duration `env:"NOTIFY_RECONNECT_DELAY" envDefault:"1s"`
	MaxReconnectDelay time.Duration `env:"NOTIFY_MAX_RECONNECT_DELAY" envDefault:"30s"`
	// ResyncOnConnect reloads the cache every time the stream (re)connects.
	ResyncOnConnect bool `env:"NOTIFY_RESYNC_ON_CONNECT" envDefault:"true"`
	PageSize        int  `env:"NOTIFY_PAGE_SIZE" envDefault:"50"`
}

// NewFromConfig wires an HTTPRemote, a Client and a Stream sharing one cache.
// opts are applied to the Client after the config.
func NewFromConfig(cfg Config, token TokenSource, httpClient *http.Client, log *slog.Logger, hook FailureHook, opts ...ClientOption) (*Client, *Stream) {
	clientOpts := []ClientOption{
		WithClientLogger(log),
		WithPageSize(cfg.PageSize),
		WithFailureHook(hook),
	}
	client := NewClient(NewHTTPRemote(cfg.BaseURL, token, httpClient), append(clientOpts, opts...)...)

	streamOpts := []StreamOption{
		WithStreamToken(token),
		WithHTTPClient(httpClient),
		WithReconnectDelay(cfg.ReconnectDelay, cfg.MaxReconnectDelay),
		WithStreamLogger(log),
	}
	if cfg.ResyncOnConnect {
		streamOpts = append(streamOpts, WithResync(client.Refresh))
	}
	return client, NewStream(cfg.BaseURL, client.Cache(), streamOpts...)
}
