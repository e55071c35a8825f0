// Package roster turns weekly personnel tables into a team strength scalar.
//
// Each player contributes
//
//	group_weight(position) * depth_multiplier(role) * snap_pct * injury_multiplier(status)
//
// and a team's raw strength is the sum over its players. Rows that fail
// validation are skipped and counted, never zero-filled.
package roster

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/pkg/logger"
)

// Position groups.
const (
	GroupQB        = "QB"
	GroupSkill     = "Skill"
	GroupOL        = "OL"
	GroupFront7    = "Front7"
	GroupSecondary = "Secondary"
)

// DefaultPositionGroups partitions position codes into groups.
func DefaultPositionGroups() map[string][]string {
	return map[string][]string{
		GroupQB:        {"QB"},
		GroupSkill:     {"WR", "RB", "TE", "FB"},
		GroupOL:        {"LT", "LG", "C", "RG", "RT", "OL", "G", "T"},
		GroupFront7:    {"DL", "DE", "DT", "NT", "LB", "ILB", "OLB", "MLB", "EDGE"},
		GroupSecondary: {"CB", "S", "FS", "SS", "DB"},
	}
}

// DefaultGroupWeights are the group weights used when none are configured.
func DefaultGroupWeights() map[string]float64 {
	return map[string]float64{
		GroupQB:        0.40,
		GroupSkill:     0.20,
		GroupOL:        0.15,
		GroupFront7:    0.15,
		GroupSecondary: 0.10,
	}
}

// DefaultDepthMultipliers maps roles to their depth chart multiplier.
// Unlisted active players count as a backup.
func DefaultDepthMultipliers() map[model.Role]float64 {
	return map[model.Role]float64{
		model.RoleStarter:  1.0,
		model.RoleBackup:   0.5,
		model.RoleThird:    0.25,
		model.RolePractice: 0.1,
		model.RoleUnlisted: 0.5,
	}
}

const defaultLimitedMultiplier = 0.5

// Result is the outcome of one strength computation.
type Result struct {
	Team     string             `json:"team,omitempty"`
	Raw      float64            `json:"raw"`
	Groups   map[string]float64 `json:"groups"`
	Counted  int                `json:"counted"`
	Excluded int                `json:"excluded"` // ruled out
	Ignored  int                `json:"ignored"`  // position outside every group
	Skipped  int                `json:"skipped"`  // malformed
}

// Engine aggregates player rows. It is immutable after construction and safe
// for concurrent use.
type Engine struct {
	weights map[string]float64
	groupOf map[string]string
	depth   map[model.Role]float64
	limited float64
	log     logger.Logger
}

// NewEngine creates an engine with the default tables, then applies opts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultGroupWeights(),
		groupOf: invert(DefaultPositionGroups()),
		depth:   DefaultDepthMultipliers(),
		limited: defaultLimitedMultiplier,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Group returns the position group of a position code, or "" when none.
func (e *Engine) Group(position string) string {
	return e.groupOf[strings.ToUpper(strings.TrimSpace(position))]
}

// Contribution is a single row's weighted contribution. It fails with
// model.ErrMalformedRow for rows that cannot be scored.
func (e *Engine) Contribution(r model.PlayerRow) (float64, error) {
	if err := validate(r); err != nil {
		return 0, err
	}
	depth, ok := e.depth[r.Role]
	if !ok {
		return 0, fmt.Errorf("%w: role %q", model.ErrMalformedRow, r.Role)
	}
	var injury float64
	switch r.Status {
	case model.StatusOut:
		return 0, nil
	case model.StatusQuestionable, model.StatusDoubtful:
		injury = e.limited
	case model.StatusActive, "":
		injury = 1
	default:
		return 0, fmt.Errorf("%w: status %q", model.ErrMalformedRow, r.Status)
	}
	group := e.Group(r.Position)
	if group == "" {
		return 0, nil
	}
	return e.weights[group] * depth * r.SnapPct * injury, nil
}

// Compute sums the contributions of rows.
func (e *Engine) Compute(ctx context.Context, rows []model.PlayerRow) Result {
	res := Result{Groups: make(map[string]float64, len(e.weights))}
	for g := range e.weights {
		res.Groups[g] = 0
	}
	for _, r := range rows {
		c, err := e.Contribution(r)
		if err != nil {
			res.Skipped++
			e.log.Debug(ctx, "skipping player row",
				logger.String("player_id", r.PlayerID),
				logger.String("name", r.Name),
				logger.Error(err),
			)
			continue
		}
		switch {
		case r.Status == model.StatusOut:
			res.Excluded++
			continue
		case e.Group(r.Position) == "":
			res.Ignored++
			continue
		}
		res.Raw += c
		res.Groups[e.Group(r.Position)] += c
		res.Counted++
	}
	return res
}

// TeamStrength validates code, joins the team week tables and computes strength.
func (e *Engine) TeamStrength(ctx context.Context, code string, tw model.TeamWeek) (Result, error) {
	t, err := team.Parse(code)
	if err != nil {
		return Result{}, err
	}
	rows, skipped := Join(t, tw)
	res := e.Compute(ctx, rows)
	res.Team = t
	res.Skipped += skipped
	return res, nil
}

func validate(r model.PlayerRow) error {
	switch {
	case r.PlayerID == "" && r.Name == "":
		return fmt.Errorf("%w: missing player identity", model.ErrMalformedRow)
	case strings.TrimSpace(r.Position) == "":
		return fmt.Errorf("%w: missing position", model.ErrMalformedRow)
	case math.IsNaN(r.SnapPct) || r.SnapPct < 0 || r.SnapPct > 1:
		return fmt.Errorf("%w: snap pct %v", model.ErrMalformedRow, r.SnapPct)
	}
	return nil
}

func invert(groups map[string][]string) map[string]string {
	out := make(map[string]string)
	for g, codes := range groups {
		for _, c := range codes {
			out[strings.ToUpper(c)] = g
		}
	}
	return out
}
