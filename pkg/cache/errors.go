package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotFound is returned for missing or expired keys.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned by every operation on a closed cache.
	ErrClosed = errors.New("cache: closed")

	ErrEncode = errors.New("cache: failed to encode value")
	ErrDecode = errors.New("cache: failed to decode value")

	// ErrNoNamespace is returned by NewRedis when the namespace is empty.
	ErrNoNamespace = errors.New("cache: redis namespace is required")
)
