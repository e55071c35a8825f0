// Package worker runs queued tuning jobs on background goroutines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/gridiron/internal/adapters/mq/queue"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.TuneJob

// Runner executes a tuning job.
type Runner interface {
	Run(ctx context.Context, job Job) error
}

// Reporter observes job lifecycle transitions.
type Reporter interface {
	Started(ctx context.Context, job Job)
	Finished(ctx context.Context, job Job, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for tuning jobs.
type InMemoryWorker struct {
	queue    Queue
	runner   Runner
	reporter Reporter
	name     string

	jobTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, reporter Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		reporter: reporter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "tuning job failed", logger.String("task_id", job.TaskID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job, reporting its start and end. A panic in the runner
// is converted into a job failure.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) (err error) {
	start := time.Now()
	w.reporter.Started(ctx, job)
	w.logger.Info(ctx, "tuning job started", logger.String("task_id", job.TaskID), logger.String("mode", string(job.Mode)))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tuning job panicked: %v", r)
		}
		status := model.TaskDone
		if err != nil {
			status = model.TaskFailed
			metrics.RecordErrorByComponent("worker", "tuning_failed")
			metrics.RecordErrorByType("tuning_failed", "high")
		}
		metrics.RecordTuningRun(string(job.Mode), string(status), time.Since(start))
		w.reporter.Finished(ctx, job, err)
	}()

	runCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}
	if err := w.runner.Run(runCtx, job); err != nil {
		return fmt.Errorf("run %s: %w", job.TaskID, err)
	}
	w.logger.Info(ctx, "tuning job finished",
		logger.String("task_id", job.TaskID),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Pool manages a fixed set of workers on one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers (at least one).
func NewPool(workerCount int, q Queue, runner Runner, reporter Reporter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, runner, reporter, wopts...)
		p.logger = p.workers[i].logger
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
