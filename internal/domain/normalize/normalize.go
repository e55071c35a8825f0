// Package normalize rescales league-wide raw strengths.
package normalize

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/types"
)

// League holds raw strengths and their two normalized variants for all 32 teams.
type League struct {
	Raw    map[string]float64 `json:"raw"`
	MinMax map[string]float64 `json:"min_max"`
	ZScore map[string]float64 `json:"z_score"`
}

// Normalize validates that raw covers exactly the 32 teams and rescales it.
// Min-max is 0 for every team when all values are equal; z-score uses the
// population standard deviation and is 0 for every team when it is zero.
func Normalize(raw map[string]float64) (League, error) {
	for code := range raw {
		if !team.Valid(code) {
			return League{}, fmt.Errorf("%w: %q", team.ErrInvalidTeam, code)
		}
	}
	var missing []string
	for _, code := range team.All() {
		if _, ok := raw[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return League{}, fmt.Errorf("%w: %v", ErrMissingTeam, missing)
	}

	codes := team.All()
	values := make([]float64, len(codes))
	for i, c := range codes {
		values[i] = raw[c]
	}
	mm := MinMax(values)
	zs := ZScore(values)

	l := League{
		Raw:    make(map[string]float64, len(codes)),
		MinMax: make(map[string]float64, len(codes)),
		ZScore: make(map[string]float64, len(codes)),
	}
	for i, c := range codes {
		l.Raw[c] = values[i]
		l.MinMax[c] = mm[i]
		l.ZScore[c] = zs[i]
	}
	return l, nil
}

// MinMax rescales values to [0,1].
func MinMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := bounds(values)
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// constant reports whether values is empty or holds a single distinct value.
func constant(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	lo, hi := bounds(values)
	return lo == hi
}

// ZScore rescales values to population standard deviation units. Equal
// values give all zeros; the float mean of equal values need not equal them.
func ZScore(values []float64) []float64 {
	out := make([]float64, len(values))
	if constant(values) {
		return out
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / float64(len(values)))
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// Ranked lists teams by raw strength, strongest first.
func (l League) Ranked() []types.Entry {
	return types.Rank(l.Raw)
}

// Teams returns the league's team codes in alphabetical order.
func (l League) Teams() []string {
	out := make([]string, 0, len(l.Raw))
	for c := range l.Raw {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
