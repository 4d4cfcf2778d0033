package ratelimiter

import "time"

// Result is the outcome of one bucket check.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // tokens left, negative when denied
	ResetAt   time.Time // next refill
}

// Allowed reports whether the request fits into the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long a denied caller should wait, measured from now.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Config defines the token bucket. A zero Capacity disables limiting.
type Config struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"60"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
}

// Enabled reports whether requests should be limited at all.
func (c Config) Enabled() bool {
	return c.Capacity > 0
}
