package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state per key.
type Store interface {
	// ConsumeTokens takes tokens from the bucket of key after refilling it.
	// A negative remaining means the request must be denied.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset forgets the bucket of key.
	Reset(ctx context.Context, key string) error
}
