package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrDisposed is returned when dispatching into a disposed store.
	ErrDisposed = errors.New("store: disposed")

	// ErrNilAction is returned when dispatching a nil action.
	ErrNilAction = errors.New("store: nil action")
)
