// Package notifications owns the notification record and the producer-side
// operations on it.
//
// Service validates and persists user actions (create, mark read, mark all
// read, delete, delete all read) through a Storage, then announces each change
// through a Publisher so live streaming sessions of the same user can update.
// Storage comes in two flavours: MemoryStorage for development and tests, and
// PostgresStorage backed by a pgx pool.
//
// Ownership is enforced by Service: acting on another user's notification
// returns ErrForbidden, an unknown id returns ErrNotificationNotFound.
package notifications
