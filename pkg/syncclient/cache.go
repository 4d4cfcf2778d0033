package syncclient

import (
	"slices"
	"sync"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// Snapshot is an immutable copy of the cache contents. Items are newest
// first; Unread always equals the number of unread items.
type Snapshot struct {
	Items  []notifications.Notification
	Unread int
}

// Cache is the local mirror of a user's notifications. Every change is an
// idempotent transformation of the item list applied under one lock, and the
// unread count is recomputed from the items after each of them.
type Cache struct {
	mu       sync.Mutex
	items    []notifications.Notification
	unread   int
	closed   bool
	onChange func(Snapshot)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithChangeHandler calls fn with the new state after every accepted change,
// outside the cache lock. Calls from concurrent changes may overlap.
func WithChangeHandler(fn func(Snapshot)) CacheOption {
	return func(c *Cache) { c.onChange = fn }
}

// NewCache returns an empty open cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Unread returns the number of unread items.
func (c *Cache) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Load replaces the contents with items, e.g. after a list call. It reports
// false when the cache is closed.
func (c *Cache) Load(items []notifications.Notification) bool {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b notifications.Notification) int {
		if byTime := b.CreatedAt.Compare(a.CreatedAt); byTime != 0 {
			return byTime
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	_, ok := c.mutate(func([]notifications.Notification) []notifications.Notification { return sorted })
	return ok
}

// Apply merges a pushed notification event. Duplicates and events about
// unknown ids are absorbed. It reports whether the cache accepted the event;
// closed caches and unknown actions are refused.
func (c *Cache) Apply(d sse.NotificationData) bool {
	var fn transform
	switch d.Action {
	case sse.ActionCreated:
		if d.Notification == nil {
			return false
		}
		fn = addIfAbsent(*d.Notification)
	case sse.ActionRead:
		if d.NotificationID == nil {
			return false
		}
		fn = setRead(*d.NotificationID)
	case sse.ActionDeleted:
		if d.NotificationID == nil {
			return false
		}
		fn = removeByID(*d.NotificationID)
	case sse.ActionAllRead:
		fn = setAllRead
	default:
		return false
	}
	_, ok := c.mutate(fn)
	return ok
}

// Close stops every further mutation. It is safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Cache) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// mutate applies fn and returns the state from before the change.
func (c *Cache) mutate(fn transform) (Snapshot, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, false
	}
	before := c.snapshot()
	c.set(fn(slices.Clone(c.items)))
	c.changed()
	return before, true
}

// restore puts back an exact earlier state.
func (c *Cache) restore(s Snapshot) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.items = slices.Clone(s.Items)
	c.unread = s.Unread
	c.changed()
	return true
}

// changed releases the lock and notifies the change handler.
func (c *Cache) changed() {
	fn := c.onChange
	var after Snapshot
	if fn != nil {
		after = c.snapshot()
	}
	c.mu.Unlock()
	if fn != nil {
		fn(after)
	}
}

func (c *Cache) set(items []notifications.Notification) {
	c.items = items
	c.unread = countUnread(items)
}

func (c *Cache) snapshot() Snapshot {
	return Snapshot{Items: slices.Clone(c.items), Unread: c.unread}
}

func countUnread(items []notifications.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
