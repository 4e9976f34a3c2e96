package storage

import "errors"

var (
	// ErrInvalidTimeRange is returned when a query's end does not lie
	// strictly after its start. Ranges are half-open: [start, end).
	ErrInvalidTimeRange = errors.New("storage: invalid time range")

	// ErrStoreUnavailable wraps database failures that are not the
	// caller's fault (locked file, I/O error). Write paths surface it so
	// the tracking loop can drop the observation and keep running.
	ErrStoreUnavailable = errors.New("storage: store unavailable")

	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("storage: not found")
)
