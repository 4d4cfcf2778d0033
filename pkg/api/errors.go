package api

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/dmitrymomot/notifystream/pkg/identity"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// HTTPError is an error with a status code and a stable machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrMethodNotAllowed    = HTTPError{Code: http.StatusMethodNotAllowed, Key: "method_not_allowed"}
	ErrUnprocessableEntity = HTTPError{Code: http.StatusUnprocessableEntity, Key: "validation_error"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)

// ValidationError maps field names to their problems.
type ValidationError url.Values

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := slices.Sorted(maps.Keys(e))
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if msgs := e[field]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs[0]))
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add appends message to the errors of field.
func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

// fieldErrors names the request field each input error is about.
var fieldErrors = map[error]string{
	notifications.ErrUserIDRequired:  "userId",
	notifications.ErrInvalidType:     "type",
	notifications.ErrTitleRequired:   "title",
	notifications.ErrTitleTooLong:    "title",
	notifications.ErrMessageRequired: "message",
	notifications.ErrInvalidLimit:    "limit",
	notifications.ErrInvalidOffset:   "offset",
	sse.ErrInvalidEventName:          "event",
}

// asValidation turns known input errors into a ValidationError.
func asValidation(err error) (ValidationError, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	for target, field := range fieldErrors {
		if errors.Is(err, target) {
			ve = ValidationError{}
			ve.Add(field, target.Error())
			return ve, true
		}
	}
	return nil, false
}

// queryFields are reported as 400 rather than 422.
var queryFields = []string{"limit", "offset", "unreadOnly", "id"}

// classify maps err to the status and error detail sent to the client.
// Messages of unexpected errors are not exposed.
func classify(err error) (int, *ErrorDetail) {
	ve, invalid := asValidation(err)

	var he HTTPError
	switch {
	case errors.As(err, &he):
	case invalid && slices.ContainsFunc(queryFields, func(f string) bool { return len(ve[f]) > 0 }):
		he = ErrBadRequest
	case invalid:
		he = ErrUnprocessableEntity
	case errors.Is(err, notifications.ErrNotificationNotFound):
		he = ErrNotFound
	case errors.Is(err, notifications.ErrForbidden):
		he = ErrForbidden
	case errors.Is(err, identity.ErrUnauthenticated):
		he = ErrUnauthorized
	default:
		he = ErrInternalServerError
	}

	if invalid {
		return he.Code, &ErrorDetail{
			Code:    he.Key,
			Message: ve.Error(),
			Details: maps.Clone(map[string][]string(ve)),
		}
	}
	return he.Code, &ErrorDetail{Code: he.Key, Message: http.StatusText(he.Code)}
}
