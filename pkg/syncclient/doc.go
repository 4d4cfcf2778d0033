// Package syncclient keeps a local notification cache consistent with the
// server while two sources change it concurrently: the user's own actions
// and events pushed over the notification stream.
//
// # Overview
//
// Cache holds the items newest first and derives the unread count from them
// after every change. All changes are idempotent set operations (add if
// absent, set read, remove by id), so an optimistic local edit followed by
// the server's echo of the same change, or the same event arriving on two
// tabs, converges to one state. Snapshot returns a copy; WithChangeHandler
// is called with a fresh snapshot after each change.
//
// Client performs the remote calls through a Remote, normally an HTTPRemote.
// MarkRead and MarkAllRead are applied to the cache first and rolled back to
// the exact prior snapshot if the call fails. Delete and DeleteAllRead touch
// the cache only after the server confirmed them. Refresh reloads the first
// page.
//
// Stream reads the server-sent events and applies them to the cache. It
// reconnects after 1s, 2s, 4s and so on up to 30s, resets the delay once a
// connection is established, and optionally reloads the cache on every
// connect through WithResync. Status reports disconnected, connecting,
// connected or closed; LastHeartbeat the server time of the last heartbeat.
//
// # Usage
//
//	client, stream := syncclient.NewFromConfig(cfg, syncclient.StaticToken(tok), nil, log,
//		func(op string, err error) { notice.Show(op, err) },
//	)
//	go stream.Run(ctx)
//	defer stream.Close()
//
//	if err := client.MarkRead(ctx, 7); err != nil {
//		// the cache is back to its state before the call
//	}
//
// Close on the Stream closes the cache first, so no frame is applied after
// it returns.
//
// # Configuration
//
//	NOTIFY_BASE_URL             default http://localhost:8080
//	NOTIFY_RECONNECT_DELAY      default 1s
//	NOTIFY_MAX_RECONNECT_DELAY  default 30s
//	NOTIFY_RESYNC_ON_CONNECT    default true
//	NOTIFY_PAGE_SIZE            default 50
//
// # Error Handling
//
// Failed mutations return an error wrapping ErrMutationFailed and the remote
// error, and are passed to the FailureHook. Non-2xx responses from the
// server surface as *StatusError. Run returns ErrUnauthorized when the
// server rejects the credentials and stops reconnecting; any other stream
// failure is retried. Calls after Close fail with ErrClosed, and a second
// concurrent Run fails with ErrAlreadyRunning.
package syncclient
