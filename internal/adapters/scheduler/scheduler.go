// Package scheduler runs periodic jobs such as scheduled retunes on a cron
// expression.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/gridiron/pkg/logger"
)

// ErrInvalidSchedule is returned for an unparsable cron expression.
var ErrInvalidSchedule = errors.New("invalid schedule")

const defaultJobTimeout = 2 * time.Hour

// Job is the work triggered by a schedule.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. Overlapping runs of one entry are skipped.
type Scheduler struct {
	cron     *cron.Cron
	timeout  time.Duration
	location *time.Location
	logger   logger.Logger
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		timeout:  defaultJobTimeout,
		location: time.UTC,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Add registers job under a standard five-field spec (or a descriptor such
// as "@daily" or "@every 6h").
func (s *Scheduler) Add(spec, name string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Warn(ctx, "scheduled job failed", logger.String("job", name), logger.Error(err))
			return
		}
		s.logger.Info(ctx, "scheduled job ran", logger.String("job", name), logger.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	s.logger.Info(context.Background(), "job scheduled", logger.String("job", name), logger.String("spec", spec))
	return id, nil
}

// Next returns the next activation time of an entry, zero if unknown or
// the scheduler is not running.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Start begins running entries in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), "cron: "+msg, fields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), "cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
