package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the authenticated user in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c Claims) UserID() string {
	return c.Subject
}

// Service issues and verifies HS256 access tokens.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTimeFunc overrides the clock used for issuing and validating tokens.
func WithTimeFunc(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a token service. The signing key must not be empty.
func New(key []byte, issuer string, ttl time.Duration, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{
		key:    key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromConfig creates a token service from cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Service, error) {
	return New([]byte(cfg.Secret), cfg.Issuer, cfg.TTL, opts...)
}

// Issue signs a token for userID. A non-positive ttl produces a token
// without expiration.
func (s *Service) Issue(userID string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  userID,
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify parses and validates a token and returns its claims.
func (s *Service) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, errors.Join(ErrExpiredToken, err)
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case claims.Subject == "":
		return Claims{}, ErrMissingUserID
	}
	return claims, nil
}
