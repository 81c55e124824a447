package orm

import "errors"

// ErrNotFound is returned when a query expects exactly one row but finds none.
var ErrNotFound = errors.New("orm: not found")

// ErrEmptyPayload is returned when an update has nothing to SET.
var ErrEmptyPayload = errors.New("orm: update payload is empty")
