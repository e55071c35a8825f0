// Package elo implements the Elo-style rating model with a margin-of-victory
// extension.
//
// Expected home score is the logistic transform of the rating gap plus the
// home advantage on a 400-point scale. After each game both ratings move by
//
//	change = K * mult * (S - E)
//
// in opposite directions. With the scoring extension enabled
//
//	mult = (|margin| + p_add)^p_exp / (d_base + d_slope * |Ra - Rb|)
//
// which grows sub-linearly with margin and shrinks when the gap between the
// teams was already wide. Otherwise mult is 1.
package elo

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
)

// Rating model constants.
const (
	Baseline           = 1500.0
	DefaultEloToPoints = 25.0
	scale              = 400.0
)

// DefaultParams returns untuned parameters: plain Elo with a 48-point home edge.
func DefaultParams() model.Params {
	return model.Params{
		K:           20,
		Home:        48,
		PAdd:        1,
		PExp:        1,
		DBase:       800,
		DSlope:      1,
		EloToPoints: DefaultEloToPoints,
	}
}

// Expected is the probability the home side wins given ratings and home advantage.
func Expected(home, away, advantage float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (away-(home+advantage))/scale))
}

// Multiplier is the margin-of-victory factor for a game.
func Multiplier(p model.Params, margin int, home, away float64) float64 {
	if !p.Scoring {
		return 1
	}
	den := p.DBase + p.DSlope*math.Abs(home-away)
	if den <= 0 {
		return 1
	}
	return math.Pow(math.Abs(float64(margin))+p.PAdd, p.PExp) / den
}

// Spread converts ratings into the expected home margin in points.
func Spread(p model.Params, home, away float64) float64 {
	pts := p.EloToPoints
	if pts <= 0 {
		pts = DefaultEloToPoints
	}
	return (home + p.Home - away) / pts
}

// Update describes the effect of one game.
type Update struct {
	Expected  float64
	Change    float64
	HomeDelta float64
	AwayDelta float64
}

// Model is the mutable rating state used while replaying games. It is not
// safe for concurrent use; publish a Snapshot instead.
type Model struct {
	params  model.Params
	ratings map[string]float64
}

// New creates a model with every team at the baseline.
func New(p model.Params) *Model {
	m := &Model{params: p}
	m.Reset()
	return m
}

// Reset returns every team to the baseline.
func (m *Model) Reset() {
	m.ratings = make(map[string]float64, team.Count)
	for _, c := range team.All() {
		m.ratings[c] = Baseline
	}
}

// Params returns the model parameters.
func (m *Model) Params() model.Params { return m.params }

// Rating returns a team's current rating.
func (m *Model) Rating(code string) (float64, error) {
	t, err := team.Parse(code)
	if err != nil {
		return 0, err
	}
	return m.ratings[t], nil
}

// Expected is the home win probability for the current ratings.
func (m *Model) Expected(home, away string) (float64, error) {
	h, a, err := pair(home, away)
	if err != nil {
		return 0, err
	}
	return Expected(m.ratings[h], m.ratings[a], m.params.Home), nil
}

// Apply folds one completed game into the ratings. Home and away deltas are
// equal and opposite.
func (m *Model) Apply(g model.Game) (Update, error) {
	h, a, err := pair(g.Home, g.Away)
	if err != nil {
		return Update{}, fmt.Errorf("%w: %w", model.ErrMalformedRow, err)
	}
	ra, rb := m.ratings[h], m.ratings[a]
	e := Expected(ra, rb, m.params.Home)
	change := m.params.K * Multiplier(m.params, g.Margin(), ra, rb) * (g.Score() - e)
	m.ratings[h] = ra + change
	m.ratings[a] = rb - change
	return Update{Expected: e, Change: change, HomeDelta: change, AwayDelta: -change}, nil
}

// ReplayStats counts what a replay did.
type ReplayStats struct {
	Applied int
	Skipped int
}

// Replay applies games in chronological order. Games naming unknown teams are
// skipped.
func (m *Model) Replay(games []model.Game) ReplayStats {
	var st ReplayStats
	for _, g := range SortGames(games) {
		if _, err := m.Apply(g); err != nil {
			st.Skipped++
			continue
		}
		st.Applied++
	}
	return st
}

// Snapshot freezes the current ratings.
func (m *Model) Snapshot(marginStdDev float64) *Snapshot {
	return &Snapshot{params: m.params, ratings: copyRatings(m.ratings), marginStdDev: marginStdDev}
}

// SortGames returns games ordered by season then week, keeping input order
// within a week.
func SortGames(games []model.Game) []model.Game {
	out := make([]model.Game, len(games))
	copy(out, games)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Week < out[j].Week
	})
	return out
}

func pair(home, away string) (string, string, error) {
	h, err := team.Parse(home)
	if err != nil {
		return "", "", err
	}
	a, err := team.Parse(away)
	if err != nil {
		return "", "", err
	}
	if h == a {
		return "", "", fmt.Errorf("%w: %s", ErrSameTeam, h)
	}
	return h, a, nil
}

func copyRatings(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
