package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidID          = errors.New("invalid note id")
)
