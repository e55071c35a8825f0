package cache

import "errors"

// Sentinel errors for cache backends.
var (
	ErrMiss           = errors.New("cache miss")
	ErrUnknownBackend = errors.New("unknown cache backend")
)
