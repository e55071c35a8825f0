package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("configuration not found")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrUnknownDriver = errors.New("unknown store driver")
)
