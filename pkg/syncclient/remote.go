package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// Remote is the server side of the mutation calls.
type Remote interface {
	List(ctx context.Context, opts notifications.ListOptions) ([]notifications.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
	DeleteAllRead(ctx context.Context) error
}

// TokenSource returns the bearer token for the next request.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// HTTPRemote calls the REST API of a notifystream server.
type HTTPRemote struct {
	baseURL string
	token   TokenSource
	client  *http.Client
}

// NewHTTPRemote uses http.DefaultClient when client is nil.
func NewHTTPRemote(baseURL string, token TokenSource, client *http.Client) *HTTPRemote {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// List fetches one page of the caller's notifications.
func (h *HTTPRemote) List(ctx context.Context, opts notifications.ListOptions) ([]notifications.Notification, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.UnreadOnly {
		q.Set("unreadOnly", "true")
	}

	var items []notifications.Notification
	if err := h.do(ctx, http.MethodGet, "/api/notifications", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UnreadCount asks the server for the authoritative unread summary.
func (h *HTTPRemote) UnreadCount(ctx context.Context) (notifications.UnreadCount, error) {
	var out notifications.UnreadCount
	err := h.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out)
	return out, err
}

// MarkRead calls POST /api/notifications/{id}/read.
func (h *HTTPRemote) MarkRead(ctx context.Context, id int64) error {
	return h.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", id), nil, nil)
}

// MarkAllRead calls POST /api/notifications/read-all.
func (h *HTTPRemote) MarkAllRead(ctx context.Context) error {
	return h.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

// Delete calls DELETE /api/notifications/{id}.
func (h *HTTPRemote) Delete(ctx context.Context, id int64) error {
	return h.do(ctx, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", id), nil, nil)
}

// DeleteAllRead calls DELETE /api/notifications/read.
func (h *HTTPRemote) DeleteAllRead(ctx context.Context) error {
	return h.do(ctx, http.MethodDelete, "/api/notifications/read", nil, nil)
}

func (h *HTTPRemote) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if err := authorize(ctx, req, h.token); err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		se := &StatusError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			se.Code, se.Message = env.Error.Code, env.Error.Message
		}
		return se
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

func authorize(ctx context.Context, req *http.Request, token TokenSource) error {
	if token == nil {
		return nil
	}
	t, err := token(ctx)
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}
	if t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	return nil
}
