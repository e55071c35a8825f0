package model

import (
	"strings"
	"time"
)

// Params are the rating model hyperparameters.
type Params struct {
	K       float64 `json:"k"`
	Home    float64 `json:"home_advantage"`
	PAdd    float64 `json:"p_add"`
	PExp    float64 `json:"p_exp"`
	DBase   float64 `json:"d_base"`
	DSlope  float64 `json:"d_slope"`
	Scoring bool    `json:"scoring_extension"`
	// EloToPoints converts a rating gap to a point spread.
	EloToPoints float64 `json:"elo_to_points"`
}

// Mode is a tuning budget.
type Mode string

// Tuning modes.
const (
	ModeQuick Mode = "quick"
	ModeFull  Mode = "full"
)

// ParseMode normalizes a user-supplied mode: case and surrounding space are
// ignored and an empty value means ModeQuick. Unknown values are returned as
// given for the caller to reject.
func ParseMode(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeQuick
	}
	return m
}

// TunedConfiguration is the product of a tuning run.
type TunedConfiguration struct {
	ID           string    `json:"id"`
	Mode         Mode      `json:"mode"`
	Params       Params    `json:"params"`
	FirstSeason  int       `json:"first_season"`
	LastSeason   int       `json:"last_season"`
	Trials       int       `json:"trials"`
	Metric       string    `json:"metric"`
	Score        float64   `json:"score"`
	MarginStdDev float64   `json:"margin_std_dev"`
	Games        int       `json:"games"`
	CreatedAt    time.Time `json:"created_at"`
}
