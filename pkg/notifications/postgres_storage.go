package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/notifystream/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by PostgresStorage.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStorage stores notifications in the notifications table created by
// the migrations shipped with the service.
type PostgresStorage struct {
	db DB
}

// NewPostgresStorage wraps a pgx pool or connection.
func NewPostgresStorage(db DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

const notificationColumns = `id, user_id, type, title, message, read, related_request_id, metadata, created_at`

// Create inserts n and fills its id and creation time.
func (s *PostgresStorage) Create(ctx context.Context, n *Notification) error {
	if n.UserID == "" {
		return ErrUserIDRequired
	}
	meta, err := encodeMetadata(n.Metadata)
	if err != nil {
		return err
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, title, message, read, related_request_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		n.UserID, string(n.Type), n.Title, n.Message, n.Read, n.RelatedRequestID, meta, createdAt,
	)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, id int64) (Notification, error) {
	row := s.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	return scanNotification(row)
}

// List returns the notifications of userID, newest first.
func (s *PostgresStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = MaxListLimit
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = $1 AND ($2::boolean IS FALSE OR read = FALSE)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		userID, opts.UnreadOnly, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := make([]Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *PostgresStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) MarkRead(ctx context.Context, id int64) (Notification, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 RETURNING `+notificationColumns, id)
	return scanNotification(row)
}

func (s *PostgresStorage) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND read = TRUE`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var (
		n    Notification
		typ  string
		meta []byte
	)
	err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.Read, &n.RelatedRequestID, &meta, &n.CreatedAt)
	if pg.IsNotFoundError(err) {
		return Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return Notification{}, fmt.Errorf("scan notification: %w", err)
	}
	n.Type = Type(typ)
	if len(meta) > 0 {
		n.Metadata = &Metadata{}
		if err := json.Unmarshal(meta, n.Metadata); err != nil {
			return Notification{}, fmt.Errorf("decode notification metadata: %w", err)
		}
	}
	return n, nil
}

func encodeMetadata(m *Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode notification metadata: %w", err)
	}
	return b, nil
}
