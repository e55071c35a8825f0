package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrTuningInProgress = errors.New("tuning in progress")
	ErrNotStarted       = errors.New("service not started")
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidCacheKey  = errors.New("invalid cache key")
)
