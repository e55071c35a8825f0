// Package team holds the fixed set of NFL franchise codes.
package team

import (
	"fmt"
	"strings"
)

// Count is the number of franchises in the league.
const Count = 32

var codes = [Count]string{
	"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE",
	"DAL", "DEN", "DET", "GB", "HOU", "IND", "JAX", "KC",
	"LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
	"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WAS",
}

// aliases maps relocated or alternate codes found in historical tables.
var aliases = map[string]string{
	"OAK": "LV",
	"SD":  "LAC",
	"STL": "LAR",
	"LA":  "LAR",
	"WSH": "WAS",
	"JAC": "JAX",
}

var index = func() map[string]int {
	m := make(map[string]int, Count)
	for i, c := range codes {
		m[c] = i
	}
	return m
}()

// All returns the 32 codes in alphabetical order. The slice is a copy.
func All() []string {
	out := make([]string, Count)
	copy(out, codes[:])
	return out
}

// Valid reports whether code is one of the 32 current codes, exactly as written.
func Valid(code string) bool {
	_, ok := index[code]
	return ok
}

// Parse normalizes code (trim, upper-case, historical alias) and validates it.
func Parse(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if alias, ok := aliases[c]; ok {
		c = alias
	}
	if !Valid(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTeam, code)
	}
	return c, nil
}
