package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifystream/pkg/identity"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

const maxBodyBytes = 64 << 10

type notificationHandlers struct {
	service *notifications.Service
	logger  *slog.Logger
}

func (h notificationHandlers) list(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	items, err := h.service.List(r.Context(), identity.UserIDFromContext(r.Context()), opts)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	limit := opts.Limit
	if limit == 0 {
		limit = notifications.DefaultListLimit
	}
	respondWithMeta(w, items, map[string]any{
		"limit":  limit,
		"offset": opts.Offset,
		"count":  len(items),
	})
}

func (h notificationHandlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(r.Context(), identity.UserIDFromContext(r.Context()))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, count)
}

func (h notificationHandlers) create(w http.ResponseWriter, r *http.Request) {
	var in notifications.CreateInput
	if err := decodeBody(w, r, &in); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	n, err := h.service.Create(r.Context(), in)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, n)
}

func (h notificationHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := notificationID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	n, err := h.service.MarkRead(r.Context(), identity.UserIDFromContext(r.Context()), id)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, n)
}

func (h notificationHandlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllRead(r.Context(), identity.UserIDFromContext(r.Context())); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h notificationHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := notificationID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserIDFromContext(r.Context()), id); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h notificationHandlers) deleteAllRead(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteAllRead(r.Context(), identity.UserIDFromContext(r.Context()))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func notificationID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		ve := ValidationError{}
		ve.Add("id", "must be a positive integer")
		return 0, errors.Join(ErrBadRequest, ve)
	}
	return id, nil
}

func parseListOptions(r *http.Request) (notifications.ListOptions, error) {
	q := r.URL.Query()
	var opts notifications.ListOptions
	ve := ValidationError{}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("limit", "must be an integer")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("offset", "must be an integer")
		}
		opts.Offset = n
	}
	if v := q.Get("unreadOnly"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ve.Add("unreadOnly", "must be a boolean")
		}
		opts.UnreadOnly = b
	}

	if len(ve) > 0 {
		return opts, errors.Join(ErrBadRequest, ve)
	}
	return opts, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
