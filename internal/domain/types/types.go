// Package types contains common types used across the application
package types

import "sort"

// Entry represents a ranked team.
type Entry struct {
	Rank  int     `json:"rank"`
	Team  string  `json:"team"`
	Value float64 `json:"value"`
}

// Rank orders teams by value, highest first. Equal values rank by team code.
func Rank(values map[string]float64) []Entry {
	out := make([]Entry, 0, len(values))
	for t, v := range values {
		out = append(out, Entry{Team: t, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Team < out[j].Team
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
