package store

import "errors"

var (
	// ErrNotOpen is returned by store operations called before Open or after
	// Close.
	ErrNotOpen = errors.New("store is not open")
	// ErrWriteFailure wraps any failure to persist one record.
	ErrWriteFailure = errors.New("write failure")
	// ErrMalformed marks a record that can't be indexed. It is always
	// reported wrapped together with ErrWriteFailure.
	ErrMalformed = errors.New("malformed event")
)
