package nflverse

import "errors"

// Sentinel errors for the nflverse client.
var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrMissingColumns  = errors.New("required columns missing")
)
