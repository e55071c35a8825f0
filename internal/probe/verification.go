package probe

import (
	"fmt"
	"strings"
)

// verifyPrediction checks one prediction against its matchup. The win
// probability must lie strictly inside (0,1) and the spread must favor the
// same side as the probability.
func verifyPrediction(m Matchup, p Prediction) error {
	if !strings.EqualFold(p.Home, m.Home) || !strings.EqualFold(p.Away, m.Away) {
		return fmt.Errorf("%w: asked %s vs %s, got %s vs %s", ErrVerification, m.Home, m.Away, p.Home, p.Away)
	}
	if p.HomeWinProb <= 0 || p.HomeWinProb >= 1 {
		return fmt.Errorf("%w: %s vs %s home_win_prob %.4f outside (0,1)", ErrVerification, m.Home, m.Away, p.HomeWinProb)
	}
	switch {
	case p.HomeWinProb > 0.5 && p.Spread <= 0,
		p.HomeWinProb < 0.5 && p.Spread >= 0:
		return fmt.Errorf("%w: %s vs %s spread %.2f disagrees with home_win_prob %.4f",
			ErrVerification, m.Home, m.Away, p.Spread, p.HomeWinProb)
	}
	return nil
}
