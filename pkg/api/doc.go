// Package api is the HTTP surface of the notification service.
//
// # Overview
//
// NewRouter mounts the notification REST routes, the event stream, the
// operational routes and the health and metrics endpoints on a chi router.
// The full route table is on NewRouter. JSON bodies use one envelope:
//
//	{"data": ..., "meta": {...}}
//	{"error": {"code": "not_found", "message": "Not Found"}}
//
// User routes require a token accepted by identity.Authenticator. Creating
// notifications, registry stats and broadcasts require the X-Admin-Token
// header instead. When Deps.Limiter is set, user routes are rate limited per
// user id.
//
// # Usage
//
//	router := api.NewRouter(api.Deps{
//		Service:       svc,
//		Connections:   reg,
//		Authenticator: auth,
//		Stream:        streams,
//		Metrics:       metricsHandler,
//	}, api.WithLogger(log), api.WithAdminToken(cfg.AdminToken))
//
// # Error Handling
//
// Handlers return domain errors and respondError maps them:
//
//   - HTTPError values such as ErrTooManyRequests are sent as they are
//   - a ValidationError on a query field (limit, offset, unreadOnly, id): 400
//   - any other ValidationError, including a title over 255 characters: 422,
//     with the offending fields in "details"
//   - notifications.ErrNotificationNotFound: 404
//   - notifications.ErrForbidden: 403
//   - identity.ErrUnauthenticated: 401
//   - anything else: 500 with a generic message, logged at error level
package api
