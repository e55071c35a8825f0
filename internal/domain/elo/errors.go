package elo

import "errors"

// Sentinel errors for the rating model.
var (
	ErrUninitializedModel = errors.New("rating model not initialized")
	ErrSameTeam           = errors.New("home and away teams must differ")
)
