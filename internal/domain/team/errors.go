package team

import "errors"

// ErrInvalidTeam is returned for codes outside the 32-team set.
var ErrInvalidTeam = errors.New("invalid team")
