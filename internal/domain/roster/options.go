package roster

import (
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithGroupWeights replaces the position group weights. Groups missing from
// weights weigh zero.
func WithGroupWeights(weights map[string]float64) Option {
	return func(e *Engine) {
		if len(weights) == 0 {
			return
		}
		e.weights = make(map[string]float64, len(weights))
		for g, w := range weights {
			e.weights[g] = w
		}
	}
}

// WithPositionGroups replaces the position-code partition.
func WithPositionGroups(groups map[string][]string) Option {
	return func(e *Engine) {
		if len(groups) == 0 {
			return
		}
		e.groupOf = invert(groups)
	}
}

// WithDepthMultipliers overrides depth chart multipliers for the given roles.
func WithDepthMultipliers(mult map[model.Role]float64) Option {
	return func(e *Engine) {
		for r, m := range mult {
			if m >= 0 {
				e.depth[r] = m
			}
		}
	}
}

// WithInjuryMultiplier sets the multiplier applied to questionable and doubtful players.
func WithInjuryMultiplier(m float64) Option {
	return func(e *Engine) {
		if m >= 0 && m <= 1 {
			e.limited = m
		}
	}
}

// WithLogger sets the logger used for skipped rows.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
