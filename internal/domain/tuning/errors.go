package tuning

import "errors"

// Sentinel errors for tuning runs.
var (
	ErrNoGames      = errors.New("no games in season range")
	ErrInvalidMode  = errors.New("invalid tuning mode")
	ErrInvalidRange = errors.New("invalid season range")
)
