// Package session drives the lifecycle of one notification stream.
//
// # Overview
//
// Every inbound stream request moves through connecting, open, closing and
// closed. While connecting the caller is resolved through an Authenticator;
// failure closes the session with 401 and nothing is registered. Once open
// the session registers its connection, writes a connected frame, starts a
// heartbeat timer and subscribes to the four notification kinds of the event
// bus, forwarding only the events addressed to its user.
//
// Client disconnect, a failed write and server shutdown all lead to the same
// teardown: the heartbeat stops, every bus handle is released exactly once,
// the connection is unregistered and closed. Teardown waits for a write that
// is already in progress, so nothing touches the ResponseWriter after
// ServeHTTP returns; SSE_WRITE_TIMEOUT bounds that wait.
//
// A frame that cannot be written for a bus event is returned to the bus,
// which counts it as a listener failure; the producer never sees it.
//
// # Usage
//
//	srv := session.NewServer(reg, bus, auth,
//		session.WithConfig(cfg),
//		session.WithLogger(log),
//		session.WithMetrics(collector),
//	)
//	router.Get("/api/notifications/stream", srv.ServeHTTP)
//
// Serve runs the same lifecycle over any Conn, which is how tests drive a
// session without an HTTP round trip. WithClock replaces the heartbeat clock
// and WithStateObserver reports every state transition.
//
// # Configuration
//
//	SSE_HEARTBEAT_INTERVAL  default 30s
//	SSE_WRITE_TIMEOUT       default 10s
//
// # Error Handling
//
// ServeHTTP answers before the stream opens, through the ErrorHandler:
//
//   - ErrUnauthenticated: 401
//   - registry.ErrTooManyConnections: 429
//   - registry.ErrClosed: 503
//   - ErrStreamingUnsupported and anything else: 500
//
// Once the stream is open errors end the session instead; a write to a
// session that is already closed fails with ErrConnectionClosed.
package session
