package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gridiron/pkg/logger"
)

const expectedTeams = 32

// Run executes the probe against a running service and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := config.withDefaults()
	log := cfg.Logger.Named("probe")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting gridiron probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matchups", cfg.Matchups),
		logger.Int("workers", cfg.Workers),
		logger.Bool("retune", cfg.Retune),
	)

	if err := c.health(ctx); err != nil {
		return stats, err
	}
	log.Info(ctx, "service is healthy")

	teams, err := c.teams(ctx)
	if err != nil {
		return stats, fmt.Errorf("list teams: %w", err)
	}
	stats.Teams = len(teams)
	if len(teams) != expectedTeams {
		return stats, fmt.Errorf("%w: %d teams listed, want %d", ErrBadResponse, len(teams), expectedTeams)
	}

	if cfg.Retune {
		if err := retuneAndWait(ctx, c, cfg, stats, log); err != nil {
			return stats, err
		}
	}

	matchups := generateMatchups(teams, cfg.Matchups, cfg.Seed, cfg.Season, cfg.Week)
	predictAll(ctx, c, cfg, matchups, stats, log)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d of %d predictions", ErrVerification, stats.Violations, stats.Successful)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d predictions failed", ErrBadResponse, stats.Failed)
	}
	return stats, nil
}

func retuneAndWait(ctx context.Context, c *client, cfg Config, stats *Stats, log logger.Logger) error {
	id, err := c.retune(ctx, cfg.Mode)
	if err != nil {
		return fmt.Errorf("start retune: %w", err)
	}
	stats.TaskID = id
	log.Info(ctx, "retune started", logger.String("task_id", id), logger.String("mode", cfg.Mode))

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		t, err := c.task(ctx, id)
		if err != nil {
			return fmt.Errorf("poll task: %w", err)
		}
		switch t.Status {
		case "done":
			log.Info(ctx, "retune finished", logger.String("task_id", id))
			return nil
		case "failed":
			return fmt.Errorf("%w: %s", ErrTaskFailed, t.Error)
		}
		if cfg.Verbose {
			log.Debug(ctx, "retune still running", logger.String("status", t.Status))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// predictAll fires matchups through a fixed worker pool.
func predictAll(ctx context.Context, c *client, cfg Config, matchups []Matchup, stats *Stats, log logger.Logger) {
	var (
		successful, failed, violations, favorites int64
		mu                                        sync.Mutex
		wg                                        sync.WaitGroup
	)
	results := make([]Prediction, 0, len(matchups))
	work := make(chan Matchup, cfg.Workers*2)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range work {
				p, err := c.predict(ctx, m)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if !errors.Is(err, context.Canceled) {
						log.Warn(ctx, "prediction failed", logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&successful, 1)
				if p.HomeWinProb > 0.5 {
					atomic.AddInt64(&favorites, 1)
				}
				if err := verifyPrediction(m, p); err != nil {
					atomic.AddInt64(&violations, 1)
					log.Warn(ctx, "verification failed", logger.Error(err))
				}
				mu.Lock()
				results = append(results, p)
				mu.Unlock()
			}
		}()
	}

	submitted := 0
feed:
	for _, m := range matchups {
		select {
		case <-ctx.Done():
			break feed
		case work <- m:
			submitted++
		}
	}
	close(work)
	wg.Wait()

	stats.Submitted = submitted
	stats.Successful = int(successful)
	stats.Failed = int(failed)
	stats.Violations = int(violations)
	stats.Favorites = int(favorites)
	stats.Predictions = results
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("teams", stats.Teams),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Int("homeFavored", stats.Favorites),
		logger.Duration("duration", stats.Duration),
		logger.Float64("predictionsPerSecond", perSecond),
	)
}
