// Package httpserver runs an http.Server with graceful shutdown.
//
// # Overview
//
// Request contexts derive from a base context that Shutdown cancels before it
// waits for handlers, and drain hooks registered with WithDrainHook run at the
// same moment. Long-lived responses such as Server-Sent Event streams end
// promptly instead of holding shutdown until its timeout.
//
// A Server runs once at a time. A second Run while the first is serving
// returns ErrAlreadyRunning and leaves the first untouched; a listener handed
// in through WithListener is never closed by a rejected Run.
//
// # Usage
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithDrainHook(func(context.Context) { connections.CloseAll() }),
//	)
//	err := srv.Run(ctx, router)
//
// Run blocks until ctx is cancelled, then shuts down within the configured
// timeout. WithStartHook reports the bound address, which is how tests using
// ":0" learn the port.
//
// HealthCheckHandler serves liveness ("ALIVE") and readiness ("READY", or
// 503 "NOT_READY") checks.
//
// # Configuration
//
//	HTTP_ADDR              default :8080
//	HTTP_READ_TIMEOUT      default 15s
//	HTTP_WRITE_TIMEOUT     default 30s
//	HTTP_IDLE_TIMEOUT      default 120s
//	HTTP_SHUTDOWN_TIMEOUT  default 10s
//
// # Error Handling
//
// Run wraps listen and serve failures in ErrStart and a shutdown that
// exceeds its timeout in ErrShutdown. A cancelled ctx is a regular stop and
// yields nil.
package httpserver
