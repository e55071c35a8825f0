package elo

import (
	"fmt"
	"math"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/types"
)

// Snapshot is an immutable set of ratings and the parameters that produced
// them. A nil *Snapshot is a model with no ratings loaded.
type Snapshot struct {
	params       model.Params
	ratings      map[string]float64
	marginStdDev float64
}

// NewSnapshot builds a snapshot from stored ratings. Teams missing from
// ratings start at the baseline.
func NewSnapshot(p model.Params, ratings map[string]float64, marginStdDev float64) (*Snapshot, error) {
	s := &Snapshot{params: p, ratings: make(map[string]float64, team.Count), marginStdDev: marginStdDev}
	for _, c := range team.All() {
		s.ratings[c] = Baseline
	}
	for code, r := range ratings {
		t, err := team.Parse(code)
		if err != nil {
			return nil, err
		}
		s.ratings[t] = r
	}
	return s, nil
}

// Prediction is the model's view of one matchup.
type Prediction struct {
	Home          string   `json:"home"`
	Away          string   `json:"away"`
	HomeWinProb   float64  `json:"home_win_prob"`
	Spread        float64  `json:"spread"`
	SpreadWinProb *float64 `json:"spread_win_prob,omitempty"`
	HomeRating    float64  `json:"home_rating"`
	AwayRating    float64  `json:"away_rating"`
}

// Predict returns the home win probability and point spread.
func (s *Snapshot) Predict(home, away string) (Prediction, error) {
	h, a, err := pair(home, away)
	if err != nil {
		return Prediction{}, err
	}
	if s == nil {
		return Prediction{}, ErrUninitializedModel
	}
	ra, rb := s.ratings[h], s.ratings[a]
	p := Prediction{
		Home:        h,
		Away:        a,
		HomeWinProb: Expected(ra, rb, s.params.Home),
		Spread:      Spread(s.params, ra, rb),
		HomeRating:  ra,
		AwayRating:  rb,
	}
	if s.marginStdDev > 0 {
		w := NormalCDF(p.Spread / s.marginStdDev)
		p.SpreadWinProb = &w
	}
	return p, nil
}

// Rating returns one team's rating.
func (s *Snapshot) Rating(code string) (float64, error) {
	if s == nil {
		return 0, ErrUninitializedModel
	}
	t, err := team.Parse(code)
	if err != nil {
		return 0, err
	}
	return s.ratings[t], nil
}

// Ratings returns a copy of every team's rating.
func (s *Snapshot) Ratings() map[string]float64 {
	if s == nil {
		return nil
	}
	return copyRatings(s.ratings)
}

// Params returns the parameters behind the ratings.
func (s *Snapshot) Params() model.Params {
	if s == nil {
		return model.Params{}
	}
	return s.params
}

// MarginStdDev is the calibrated spread residual, or 0 when unknown.
func (s *Snapshot) MarginStdDev() float64 {
	if s == nil {
		return 0
	}
	return s.marginStdDev
}

// Rankings orders teams by rating.
func (s *Snapshot) Rankings() ([]types.Entry, error) {
	if s == nil {
		return nil, ErrUninitializedModel
	}
	return types.Rank(s.ratings), nil
}

// NormalCDF is the standard normal cumulative distribution.
func NormalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func (s *Snapshot) String() string {
	if s == nil {
		return "elo.Snapshot(nil)"
	}
	return fmt.Sprintf("elo.Snapshot(k=%.2f home=%.2f teams=%d)", s.params.K, s.params.Home, len(s.ratings))
}
