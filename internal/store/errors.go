package store

import "errors"

var (
	// ErrNotFound is returned when no entry exists for a date, or when
	// stats were never synced.
	ErrNotFound = errors.New("not found")
)
