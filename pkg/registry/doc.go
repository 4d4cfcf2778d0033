// Package registry tracks which users are reachable and on how many streams.
//
// Each user id maps to a set of Connection values. A Connection is anything
// that can take an sse.Frame and be closed; stream sessions register the
// connection of their HTTP response, tests register fakes.
//
// # Delivery
//
// SendToUser writes a frame to every connection of the user and SendToAll to
// every connection of every user. A connection whose write fails is collected
// and, once all writes are done, unregistered and closed, so one broken tab
// never blocks delivery to its siblings and dead streams never linger. Both
// return the number of successful writes. Removing the last connection of a
// user removes the user entry.
//
// # Limits
//
// Registrations are bounded per user (SSE_MAX_CONNECTIONS_PER_USER, default
// 10) and in total (SSE_MAX_CONNECTIONS, default 10000). When a limit is
// reached Register returns ErrUserLimitReached or ErrGlobalLimitReached, both
// wrapping ErrTooManyConnections, and the registry is left unchanged;
// existing connections are never evicted to make room. After CloseAll every
// Register fails with ErrClosed.
//
// # Usage
//
//	reg := registry.NewFromConfig(cfg,
//		registry.WithLogger(log),
//		registry.WithMetrics(collector),
//	)
//	if err := reg.Register(userID, conn); err != nil {
//		return err // 429 for ErrTooManyConnections
//	}
//	defer reg.Unregister(userID, conn)
//
//	frame, _ := sse.NewFrame("maintenance", map[string]string{"at": "02:00"})
//	sent := reg.SendToAll(ctx, frame)
//
// Stats returns totals and per-user counts for the operational endpoint.
package registry
