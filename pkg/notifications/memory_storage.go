package notifications

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage keeps notifications in process memory. Suitable for
// development, tests and single-instance deployments without a database.
type MemoryStorage struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Notification
	now    func() time.Time
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID: make(map[int64]Notification),
		now:  time.Now,
	}
}

// Create assigns the next id and stores a copy of n.
func (s *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	if n.UserID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == 0 {
		s.nextID++
		n.ID = s.nextID
	} else if n.ID > s.nextID {
		s.nextID = n.ID
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.byID[n.ID] = *n
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id int64) (Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return Notification{}, ErrNotificationNotFound
	}
	return n, nil
}

// List returns the notifications of userID, newest first.
func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	filtered := make([]Notification, 0)
	for _, n := range s.byID {
		if n.UserID != userID || (opts.UnreadOnly && n.Read) {
			continue
		}
		filtered = append(filtered, n)
	}
	s.mu.RUnlock()

	// Newest first; ties broken by id so equal timestamps keep insertion order reversed.
	slices.SortFunc(filtered, func(a, b Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if opts.Offset >= len(filtered) {
		return []Notification{}, nil
	}
	end := len(filtered)
	if opts.Limit > 0 && opts.Offset+opts.Limit < end {
		end = opts.Offset + opts.Limit
	}
	return filtered[opts.Offset:end], nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byID {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, id int64) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return Notification{}, ErrNotificationNotFound
	}
	n.Read = true
	s.byID[id] = n
	return n, nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for id, n := range s.byID {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.byID[id] = n
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrNotificationNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStorage) DeleteRead(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, n := range s.byID {
		if n.UserID == userID && n.Read {
			delete(s.byID, id)
			removed++
		}
	}
	return removed, nil
}
