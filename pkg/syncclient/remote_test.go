package syncclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/syncclient"
)

type call struct {
	method string
	path   string
	query  string
	auth   string
}

type callLog struct {
	mu   sync.Mutex
	list []call
}

func (c *callLog) all() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.list...)
}

func newRemoteServer(t *testing.T, status int, body any) (*httptest.Server, *callLog) {
	t.Helper()
	rec := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.list = append(rec.list, call{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		})
		rec.mu.Unlock()
		if body == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestHTTPRemote_List(t *testing.T) {
	t.Parallel()

	srv, calls := newRemoteServer(t, http.StatusOK, map[string]any{
		"data": []notifications.Notification{note(2, false), note(1, true)},
	})
	remote := syncclient.NewHTTPRemote(srv.URL+"/", syncclient.StaticToken("tok"), nil)

	items, err := remote.List(context.Background(), notifications.ListOptions{Limit: 20, Offset: 40, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.True(t, items[1].Read)

	require.Len(t, calls.all(), 1)
	got := calls.all()[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/notifications", got.path)
	assert.Equal(t, "limit=20&offset=40&unreadOnly=true", got.query)
	assert.Equal(t, "Bearer tok", got.auth)
}

func TestHTTPRemote_Mutations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		call   func(context.Context, *syncclient.HTTPRemote) error
		method string
		path   string
	}{
		{
			name:   "mark read",
			call:   func(ctx context.Context, r *syncclient.HTTPRemote) error { return r.MarkRead(ctx, 7) },
			method: http.MethodPost,
			path:   "/api/notifications/7/read",
		},
		{
			name:   "mark all read",
			call:   func(ctx context.Context, r *syncclient.HTTPRemote) error { return r.MarkAllRead(ctx) },
			method: http.MethodPost,
			path:   "/api/notifications/read-all",
		},
		{
			name:   "delete",
			call:   func(ctx context.Context, r *syncclient.HTTPRemote) error { return r.Delete(ctx, 7) },
			method: http.MethodDelete,
			path:   "/api/notifications/7",
		},
		{
			name:   "delete all read",
			call:   func(ctx context.Context, r *syncclient.HTTPRemote) error { return r.DeleteAllRead(ctx) },
			method: http.MethodDelete,
			path:   "/api/notifications/read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, calls := newRemoteServer(t, http.StatusNoContent, nil)
			remote := syncclient.NewHTTPRemote(srv.URL, nil, srv.Client())

			require.NoError(t, tt.call(context.Background(), remote))
			got := calls.all()
			require.Len(t, got, 1)
			assert.Equal(t, tt.method, got[0].method)
			assert.Equal(t, tt.path, got[0].path)
			assert.Empty(t, got[0].auth)
		})
	}
}

func TestHTTPRemote_Errors(t *testing.T) {
	t.Parallel()

	t.Run("error envelope", func(t *testing.T) {
		t.Parallel()
		srv, _ := newRemoteServer(t, http.StatusNotFound, map[string]any{
			"error": map[string]string{"code": "not_found", "message": "Notification not found"},
		})
		remote := syncclient.NewHTTPRemote(srv.URL, nil, nil)

		err := remote.MarkRead(context.Background(), 7)
		var se *syncclient.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.Equal(t, "not_found", se.Code)
		assert.Equal(t, "Notification not found", se.Message)
		assert.NotErrorIs(t, err, syncclient.ErrUnauthorized)
	})

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()
		srv, _ := newRemoteServer(t, http.StatusUnauthorized, nil)
		remote := syncclient.NewHTTPRemote(srv.URL, nil, nil)

		assert.ErrorIs(t, remote.MarkAllRead(context.Background()), syncclient.ErrUnauthorized)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		remote := syncclient.NewHTTPRemote(srv.URL, nil, nil)

		_, err := remote.List(context.Background(), notifications.ListOptions{})
		assert.Error(t, err)
	})
}

func TestHTTPRemote_UnreadCount(t *testing.T) {
	t.Parallel()

	srv, calls := newRemoteServer(t, http.StatusOK, map[string]any{
		"data": notifications.UnreadCount{Count: 3},
	})
	remote := syncclient.NewHTTPRemote(srv.URL, nil, nil)

	got, err := remote.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, "/api/notifications/unread-count", calls.all()[0].path)
}
