package identity

import "time"

// Config holds the token signing settings. JWT_SECRET is required.
type Config struct {
	Secret string        `env:"JWT_SECRET,required"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"notifystream"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}
