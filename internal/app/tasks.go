package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/tuning"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// Retune submits a background tuning task for mode.
func (s *Service) Retune(ctx context.Context, mode model.Mode) (model.Task, error) {
	return s.Submit(ctx, model.TuneJob{Mode: mode})
}

// Submit validates job, claims the single tuning slot and queues it. A second
// submission while a task is pending or running fails with ErrTuningInProgress.
func (s *Service) Submit(ctx context.Context, job model.TuneJob) (model.Task, error) {
	if job.Mode != model.ModeQuick && job.Mode != model.ModeFull {
		return model.Task{}, fmt.Errorf("%w: %q", tuning.ErrInvalidMode, job.Mode)
	}
	if job.FirstSeason > 0 && job.LastSeason > 0 && job.FirstSeason > job.LastSeason {
		return model.Task{}, fmt.Errorf("%w: %d-%d", tuning.ErrInvalidRange, job.FirstSeason, job.LastSeason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Task{}, ErrNotStarted
	}

	job.TaskID = uuid.NewString()
	job.EnqueuedAt = s.now().UTC()

	ok, holders := s.guard.TryAcquire(ctx, job.TaskID)
	if !ok {
		metrics.RecordErrorByComponent("service", "tuning_in_progress")
		return model.Task{}, fmt.Errorf("%w: %s", ErrTuningInProgress, strings.Join(holders, ","))
	}

	task := &model.Task{
		ID:        job.TaskID,
		Mode:      job.Mode,
		Status:    model.TaskPending,
		CreatedAt: job.EnqueuedAt,
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)

	if !s.queue.Enqueue(ctx, job) {
		s.guard.Release(ctx, job.TaskID)
		delete(s.tasks, task.ID)
		s.order = s.order[:len(s.order)-1]
		if s.queue.IsClosed() {
			return model.Task{}, ErrNotStarted
		}
		return model.Task{}, ErrTuningInProgress
	}
	s.prune()
	metrics.UpdateTasksInFlight(int(s.guard.Size()))

	s.logger.Info(ctx, "tuning task submitted",
		logger.String("task_id", task.ID),
		logger.String("mode", string(task.Mode)),
	)
	return *task, nil
}

// Task returns a copy of one task.
func (s *Service) Task(ctx context.Context, id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return *t, nil
}

// Tasks returns every remembered task, oldest first.
func (s *Service) Tasks(ctx context.Context) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}

// prune drops the oldest finished tasks beyond maxTasks. Callers hold mu.
func (s *Service) prune() {
	excess := len(s.order) - s.maxTasks
	if excess <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if excess > 0 && s.tasks[id].Status.Finished() {
			delete(s.tasks, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

func (s *Service) scheduledRetune(ctx context.Context) error {
	_, err := s.Submit(ctx, model.TuneJob{Mode: model.ModeQuick, Refresh: true})
	if errors.Is(err, ErrTuningInProgress) {
		s.logger.Info(ctx, "scheduled retune skipped; a task is already running")
		return nil
	}
	return err
}

// tune runs one job end to end. The installed configuration only changes
// after the result is persisted.
func (s *Service) tune(ctx context.Context, job model.TuneJob) error {
	latest := job.LastSeason
	if latest == 0 {
		latest = s.lastSeason
	}
	if latest == 0 {
		var err error
		if latest, err = s.source.LatestSeason(ctx); err != nil {
			return err
		}
	}

	req, err := s.tuner.Plan(job.Mode, latest)
	if err != nil {
		return err
	}
	if job.FirstSeason > 0 {
		req.FirstSeason = job.FirstSeason
	} else if job.Mode == model.ModeFull && s.firstSeason > 0 && s.firstSeason <= latest {
		req.FirstSeason = s.firstSeason
	}
	if job.Trials > 0 {
		req.Trials = job.Trials
	}

	games, err := s.source.Games(ctx, req.FirstSeason, req.LastSeason, job.Refresh)
	if err != nil {
		return err
	}
	out, err := s.tuner.Tune(ctx, games, req)
	if err != nil {
		return err
	}

	cfg := out.Config
	cfg.ID = job.TaskID
	cfg.CreatedAt = s.now().UTC()
	if err := s.store.SaveConfiguration(ctx, cfg, out.Snapshot.Ratings()); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	s.install(cfg, out.Snapshot)

	for range out.Trials {
		metrics.RecordTuningTrial()
	}
	metrics.RecordGamesReplayed(cfg.Games * len(out.Trials))

	s.mu.Lock()
	if t, ok := s.tasks[job.TaskID]; ok {
		t.Result = &cfg
	}
	s.mu.Unlock()
	return nil
}

// tuneRunner adapts the service to worker.Runner.
type tuneRunner struct {
	s *Service
}

func (r tuneRunner) Run(ctx context.Context, job model.TuneJob) error {
	return r.s.tune(ctx, job)
}

// taskReporter adapts the service to worker.Reporter.
type taskReporter struct {
	s *Service
}

func (r taskReporter) Started(ctx context.Context, job model.TuneJob) {
	now := r.s.now().UTC()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tasks[job.TaskID]; ok {
		t.Status = model.TaskRunning
		t.StartedAt = &now
	}
}

func (r taskReporter) Finished(ctx context.Context, job model.TuneJob, err error) {
	now := r.s.now().UTC()
	r.s.mu.Lock()
	if t, ok := r.s.tasks[job.TaskID]; ok {
		t.FinishedAt = &now
		t.Status = model.TaskDone
		if err != nil {
			t.Status = model.TaskFailed
			t.Error = err.Error()
		}
	}
	r.s.mu.Unlock()

	r.s.guard.Release(ctx, job.TaskID)
	metrics.UpdateTasksInFlight(int(r.s.guard.Size()))
	if err != nil {
		r.s.logger.Warn(ctx, "tuning task failed; keeping current configuration",
			logger.String("task_id", job.TaskID),
			logger.Error(err),
		)
		return
	}
	r.s.logger.Info(ctx, "tuning task finished",
		logger.String("task_id", job.TaskID),
		logger.Duration("queued_for", now.Sub(job.EnqueuedAt)),
	)
}
