package identity

import (
	"net/http"
	"strings"
)

// TokenExtractor pulls a raw token out of a request.
type TokenExtractor func(r *http.Request) (string, error)

// BearerToken reads "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// CookieToken reads the token from the named cookie.
func CookieToken(name string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", ErrMissingToken
		}
		return c.Value, nil
	}
}

// QueryToken reads the token from a query parameter. Browsers cannot set
// headers on an EventSource, so the stream endpoint accepts this form.
func QueryToken(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get(param)
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}

// FirstOf tries extractors in order and returns the first token found.
func FirstOf(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			if token, err := ex(r); err == nil {
				return token, nil
			}
		}
		return "", ErrMissingToken
	}
}

// DefaultExtractor accepts a bearer header, an "access_token" cookie or a
// "token" query parameter.
func DefaultExtractor() TokenExtractor {
	return FirstOf(BearerToken, CookieToken("access_token"), QueryToken("token"))
}
