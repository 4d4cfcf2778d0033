package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the limiting key from a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// Middleware limits requests per key. Denied requests are handed to onLimit,
// store failures to onError; both may be nil for plain-text responses.
func Middleware(
	b *Bucket,
	keyFunc KeyFunc,
	onLimit func(w http.ResponseWriter, r *http.Request, res *Result),
	onError func(w http.ResponseWriter, r *http.Request, err error),
) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request, _ *Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), key)
			if err != nil {
				onError(w, r, err)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if wait := res.RetryAfter(time.Now()); wait > 0 {
					h.Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
				}
				onLimit(w, r, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
