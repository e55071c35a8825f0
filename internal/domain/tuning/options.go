package tuning

import (
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
)

// Option applies a configuration option to the Tuner.
type Option func(*Tuner)

// WithSeed sets the random source seed.
func WithSeed(seed int64) Option {
	return func(t *Tuner) { t.seed = seed }
}

// WithMetric selects the scoring metric. Unknown metrics are ignored.
func WithMetric(m Metric) Option {
	return func(t *Tuner) {
		if m == MetricBrier || m == MetricLogLoss {
			t.metric = m
		}
	}
}

// WithSpace replaces the search space.
func WithSpace(s Space) Option {
	return func(t *Tuner) {
		if s.valid() {
			t.space = s
		}
	}
}

// WithQuickBudget sets trials and season count for quick mode.
func WithQuickBudget(trials, seasons int) Option {
	return func(t *Tuner) {
		if trials > 0 {
			t.quickTrials = trials
		}
		if seasons > 0 {
			t.quickSeasons = seasons
		}
	}
}

// WithFullBudget sets trials and first season for full mode.
func WithFullBudget(trials, firstSeason int) Option {
	return func(t *Tuner) {
		if trials > 0 {
			t.fullTrials = trials
		}
		if firstSeason > 0 {
			t.firstSeason = firstSeason
		}
	}
}

// WithBaseParams sets the fields every trial inherits (scoring extension, spread scale).
func WithBaseParams(p model.Params) Option {
	return func(t *Tuner) {
		t.base.Scoring = p.Scoring
		if p.EloToPoints > 0 {
			t.base.EloToPoints = p.EloToPoints
		}
	}
}

// WithTrialHook registers a callback invoked after each trial.
func WithTrialHook(fn func(Trial)) Option {
	return func(t *Tuner) { t.onTrial = fn }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tuner) {
		if l != nil {
			t.log = l
		}
	}
}
