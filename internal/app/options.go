package service

import (
	"time"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/roster"
	"github.com/okian/gridiron/internal/domain/tuning"
	"github.com/okian/gridiron/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine sets the roster strength engine.
func WithEngine(e *roster.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithTuner sets the hyperparameter tuner.
func WithTuner(t *tuning.Tuner) Option {
	return func(s *Service) {
		if t != nil {
			s.tuner = t
		}
	}
}

// WithSeasons bounds the tuning range. last 0 follows the latest season in the data.
func WithSeasons(first, last int) Option {
	return func(s *Service) {
		s.firstSeason = first
		s.lastSeason = last
	}
}

// WithBootstrap submits a tuning task of mode on start when no configuration is stored.
func WithBootstrap(enabled bool, mode model.Mode) Option {
	return func(s *Service) {
		s.bootstrap = enabled
		if mode != "" {
			s.bootstrapMode = mode
		}
	}
}

// WithRetuneSchedule submits a quick retune on a cron schedule. Empty disables it.
func WithRetuneSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// WithMaxTasks bounds how many finished tasks are remembered.
func WithMaxTasks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTasks = n
		}
	}
}

// WithTuningTimeout cancels a tuning task that runs longer than d.
func WithTuningTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.tuneTimeout = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
