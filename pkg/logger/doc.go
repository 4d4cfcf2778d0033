// Package logger builds the structured slog loggers used across notifystream.
//
// New returns a *slog.Logger configured with Option functions (format, level,
// static attributes, per-environment defaults). The handler is wrapped with
// LogHandlerDecorator so values carried in the context, such as the request id
// or the authenticated user id, are attached to every record logged with a
// *Context method.
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "notifystream"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "session opened", logger.UserID(uid), logger.ConnectionID(id))
//
// Attribute helpers keep key names consistent. Helpers for optional values
// (Error, UserID, NotificationID and friends) return an empty Attr for zero
// input, which slog drops, so callers need no nil checks.
package logger
