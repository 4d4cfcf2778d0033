// Package requestid attaches a correlation id to every HTTP request.
//
// A request id ties together the log records of one request across the
// router, the notification service and the stream session that served it.
//
// # Overview
//
// The package offers:
//
//   - Middleware, which keeps the X-Request-ID header sent by the client when
//     it is 1 to 128 letters, digits, '-' or '_' and otherwise generates a
//     UUID. The id is stored in the request context and echoed back in the
//     response header.
//
//   - WithContext and FromContext for storing and reading the id.
//
//   - LoggerExtractor, which plugs into logger.WithContextExtractors so every
//     record logged with the request context carries a request_id attribute.
//
// # Usage
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		log.InfoContext(r.Context(), "hello") // request_id=...
//	})
//
// # Error Handling
//
// Nothing in the package returns errors. An invalid client-supplied id is
// replaced, never rejected.
package requestid
