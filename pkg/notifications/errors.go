package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrForbidden            = errors.New("notification belongs to another user")
	ErrUserIDRequired       = errors.New("user id is required")
	ErrInvalidType          = errors.New("unknown notification type")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleTooLong         = errors.New("title must be at most 255 characters")
	ErrMessageRequired      = errors.New("message is required")
	ErrInvalidLimit         = errors.New("limit must be between 1 and 100")
	ErrInvalidOffset        = errors.New("offset must not be negative")
)
