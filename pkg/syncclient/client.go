package syncclient

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// Mutation names passed to the failure hook.
const (
	OpMarkRead      = "mark_read"
	OpMarkAllRead   = "mark_all_read"
	OpDelete        = "delete"
	OpDeleteAllRead = "delete_all_read"
	OpRefresh       = "refresh"
)

// FailureHook is told about every failed mutation, after the cache was
// restored. Use it to surface a notice to the user.
type FailureHook func(op string, err error)

// Client applies user actions to a Cache and to the server. Mark-read
// mutations are optimistic and rolled back on failure; deletions change the
// cache only after the server confirmed them.
type Client struct {
	cache     *Cache
	remote    Remote
	pageSize  int
	logger    *slog.Logger
	onFailure FailureHook
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client logger. Nil discards logs.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.OrDiscard(l) }
}

// WithFailureHook sets the callback told about every rolled back mutation.
func WithFailureHook(fn FailureHook) ClientOption {
	return func(c *Client) { c.onFailure = fn }
}

// WithPageSize sets how many notifications Refresh loads.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithCache shares an existing cache, e.g. with a Stream.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// NewClient creates a client over remote with its own cache unless WithCache
// shares one.
func NewClient(remote Remote, opts ...ClientOption) *Client {
	c := &Client{
		cache:    NewCache(),
		remote:   remote,
		pageSize: notifications.DefaultListLimit,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the cache the client mutates.
func (c *Client) Cache() *Cache { return c.cache }

// Refresh replaces the cache with the newest page from the server.
func (c *Client) Refresh(ctx context.Context) error {
	items, err := c.remote.List(ctx, notifications.ListOptions{Limit: c.pageSize})
	if err != nil {
		return c.failed(ctx, OpRefresh, err)
	}
	if !c.cache.Load(items) {
		return ErrClosed
	}
	return nil
}

// MarkRead marks id read locally, then on the server. On failure the cache
// is put back exactly as it was before the call.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.optimistic(ctx, OpMarkRead, setRead(id), func(ctx context.Context) error {
		return c.remote.MarkRead(ctx, id)
	})
}

// MarkAllRead marks every item read locally, then on the server, with the
// same rollback as MarkRead.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.optimistic(ctx, OpMarkAllRead, setAllRead, c.remote.MarkAllRead)
}

// Delete removes id on the server and, once confirmed, from the cache.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.confirmed(ctx, OpDelete, removeByID(id), func(ctx context.Context) error {
		return c.remote.Delete(ctx, id)
	})
}

// DeleteAllRead removes read items on the server and, once confirmed, from
// the cache.
func (c *Client) DeleteAllRead(ctx context.Context) error {
	return c.confirmed(ctx, OpDeleteAllRead, removeRead, c.remote.DeleteAllRead)
}

// Close stops every further cache mutation.
func (c *Client) Close() {
	c.cache.Close()
}

func (c *Client) optimistic(ctx context.Context, op string, fn transform, call func(context.Context) error) error {
	before, ok := c.cache.mutate(fn)
	if !ok {
		return ErrClosed
	}
	if err := call(ctx); err != nil {
		c.cache.restore(before)
		return c.failed(ctx, op, err)
	}
	return nil
}

func (c *Client) confirmed(ctx context.Context, op string, fn transform, call func(context.Context) error) error {
	if c.cache.Closed() {
		return ErrClosed
	}
	if err := call(ctx); err != nil {
		return c.failed(ctx, op, err)
	}
	if _, ok := c.cache.mutate(fn); !ok {
		return ErrClosed
	}
	return nil
}

func (c *Client) failed(ctx context.Context, op string, err error) error {
	c.logger.LogAttrs(ctx, slog.LevelWarn, "Notification mutation failed",
		slog.String("op", op),
		logger.Error(err),
	)
	if c.onFailure != nil {
		c.onFailure(op, err)
	}
	return errors.Join(ErrMutationFailed, err)
}
