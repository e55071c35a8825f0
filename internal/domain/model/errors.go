package model

import "errors"

// ErrMalformedRow marks a single record that failed validation. Callers skip it.
var ErrMalformedRow = errors.New("malformed row")
