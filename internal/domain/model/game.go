// Package model contains domain models passed between layers.
package model

// Result is the home team's outcome of a completed game.
type Result string

// Game results from the home side.
const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultTie  Result = "tie"
)

// Game is a completed regular-season game. It is an immutable historical fact.
type Game struct {
	Season     int    `json:"season"`
	Week       int    `json:"week"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	HomePoints int    `json:"home_points"`
	AwayPoints int    `json:"away_points"`
}

// Margin is the home margin of victory (negative when the away team won).
func (g Game) Margin() int { return g.HomePoints - g.AwayPoints }

// Result derives win/loss/tie for the home team.
func (g Game) Result() Result {
	switch m := g.Margin(); {
	case m > 0:
		return ResultWin
	case m < 0:
		return ResultLoss
	default:
		return ResultTie
	}
}

// Score is the home team's actual outcome: 1 win, 0 loss, 0.5 tie.
func (g Game) Score() float64 {
	switch g.Result() {
	case ResultWin:
		return 1
	case ResultLoss:
		return 0
	default:
		return 0.5
	}
}
