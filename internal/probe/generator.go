package probe

import "math/rand"

// generateMatchups returns n pairings of distinct teams. The same seed always
// yields the same list.
func generateMatchups(teams []string, n int, seed int64, season, week int) []Matchup {
	if len(teams) < 2 || n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]Matchup, n)
	for i := range out {
		h := rng.Intn(len(teams))
		a := rng.Intn(len(teams) - 1)
		if a >= h {
			a++
		}
		out[i] = Matchup{Home: teams[h], Away: teams[a], Season: season, Week: week}
	}
	return out
}
