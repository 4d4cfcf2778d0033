// Package ratelimiter implements a token bucket limiter with an in-memory
// store and an HTTP middleware.
//
// The API uses it to throttle each authenticated user, which keeps a
// misbehaving client from reconnecting its event stream in a tight loop:
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//	bucket, err := ratelimiter.NewBucket(store, cfg)
//	if err != nil {
//		return err
//	}
//	r.Use(ratelimiter.Middleware(bucket, byUser, nil, nil))
//
// Responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers; denied ones also get Retry-After.
package ratelimiter
