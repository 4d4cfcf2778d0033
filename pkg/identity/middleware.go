package identity

import (
	"errors"
	"net/http"
)

// Authenticator resolves the caller of a request to a stable user id.
type Authenticator struct {
	service   *Service
	extractor TokenExtractor
}

// NewAuthenticator uses DefaultExtractor when extractor is nil.
func NewAuthenticator(service *Service, extractor TokenExtractor) *Authenticator {
	if extractor == nil {
		extractor = DefaultExtractor()
	}
	return &Authenticator{service: service, extractor: extractor}
}

// Authenticate returns the user id carried by the request token. Every
// failure wraps ErrUnauthenticated.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return userID, nil
	}
	token, err := a.extractor(r)
	if err != nil {
		return "", errors.Join(ErrUnauthenticated, err)
	}
	claims, err := a.service.Verify(token)
	if err != nil {
		return "", errors.Join(ErrUnauthenticated, err)
	}
	return claims.UserID(), nil
}

// Middleware authenticates every request and stores the user id in the
// request context. Failures are passed to onError, which must write the
// response.
func Middleware(a *Authenticator, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := a.Authenticate(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
