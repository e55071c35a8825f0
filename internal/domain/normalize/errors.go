package normalize

import "errors"

// ErrMissingTeam is returned when the raw input lacks one of the 32 teams.
var ErrMissingTeam = errors.New("missing team")
