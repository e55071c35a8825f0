// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the MCP tools.
//
// The service owns all mutable state: the installed rating snapshot and
// configuration, the task registry, and the background tuning worker.
// Predictions read the snapshot through an atomic pointer and never wait on
// a tuning run.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gridiron/internal/adapters/cache"
	"github.com/okian/gridiron/internal/adapters/mq/queue"
	workerpool "github.com/okian/gridiron/internal/adapters/mq/worker"
	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/adapters/scheduler"
	"github.com/okian/gridiron/internal/domain/elo"
	"github.com/okian/gridiron/internal/domain/inflight"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/normalize"
	"github.com/okian/gridiron/internal/domain/roster"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/tuning"
	"github.com/okian/gridiron/internal/domain/types"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

const (
	defaultMaxTasks = 100
	historyLimit    = 20
)

// Source provides the raw tables the service computes from.
type Source interface {
	// Games returns regular season games between first and last inclusive.
	Games(ctx context.Context, first, last int, refresh bool) ([]model.Game, error)

	// LatestSeason returns the most recent season with at least one result.
	LatestSeason(ctx context.Context) (int, error)

	// TeamWeek returns one team's personnel tables for a week.
	TeamWeek(ctx context.Context, code string, season, week int, refresh bool) (model.TeamWeek, error)

	// RefreshWeek downloads a week's season tables again and drops every
	// team's cached slice of that week.
	RefreshWeek(ctx context.Context, season, week int) error

	// Invalidate drops one cached table.
	Invalidate(ctx context.Context, key cache.Key) error
}

// PredictRequest asks for a matchup prediction. When Season and Week are both
// positive the response carries each side's roster strength for that week.
type PredictRequest struct {
	Home    string
	Away    string
	Season  int
	Week    int
	Refresh bool
}

// TeamStrength is one team's strength in the three league scales.
type TeamStrength struct {
	Raw    float64 `json:"raw"`
	MinMax float64 `json:"min_max"`
	ZScore float64 `json:"z_score"`
}

// Prediction is a model prediction with optional roster context.
type Prediction struct {
	elo.Prediction
	HomeStrength *TeamStrength `json:"home_strength,omitempty"`
	AwayStrength *TeamStrength `json:"away_strength,omitempty"`
}

// LeagueStrength is the normalized strength of every team for one week.
type LeagueStrength struct {
	Season int                      `json:"season"`
	Week   int                      `json:"week"`
	Teams  map[string]TeamStrength  `json:"teams"`
	Ranked []types.Entry            `json:"ranked"`
	Detail map[string]roster.Result `json:"detail,omitempty"`
}

// installed pairs a tuned configuration with the ratings replayed under it.
type installed struct {
	config   model.TunedConfiguration
	snapshot *elo.Snapshot
}

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	source Source
	store  repository.Store
	engine *roster.Engine
	tuner  *tuning.Tuner
	guard  inflight.Guard
	queue  queue.Queue
	pool   *workerpool.Pool
	sched  *scheduler.Scheduler

	// Installed model, replaced as a whole
	active atomic.Pointer[installed]

	// Task registry, guarded by mu
	tasks map[string]*model.Task
	order []string

	// Configuration
	firstSeason   int
	lastSeason    int
	bootstrap     bool
	bootstrapMode model.Mode
	schedule      string
	maxTasks      int
	tuneTimeout   time.Duration
	now           func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service over a data source and a configuration store.
func New(source Source, store repository.Store, opts ...Option) *Service {
	s := &Service{
		source:        source,
		store:         store,
		engine:        roster.NewEngine(),
		tuner:         tuning.New(),
		guard:         inflight.NewGuard(),
		tasks:         make(map[string]*model.Task),
		firstSeason:   tuning.DefaultFirstSeason,
		bootstrapMode: model.ModeQuick,
		maxTasks:      defaultMaxTasks,
		now:           time.Now,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the latest stored configuration, starts the tuning worker and
// the retune schedule. With bootstrap enabled and nothing stored, an initial
// tuning task is submitted.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.logger.Info(ctx, "starting gridiron service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(1))
	s.pool = workerpool.NewPool(1, s.queue, tuneRunner{s}, taskReporter{s},
		workerpool.WithLogger(s.logger),
		workerpool.WithJobTimeout(s.tuneTimeout),
	)
	s.pool.Start(ctx)

	if s.schedule != "" {
		s.sched = scheduler.New(scheduler.WithLogger(s.logger))
		if _, err := s.sched.Add(s.schedule, "retune", s.scheduledRetune); err != nil {
			s.mu.Unlock()
			return err
		}
		s.sched.Start()
	}
	s.started = true
	s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "gridiron service started",
		logger.Bool("model_loaded", s.active.Load() != nil),
		logger.String("retune_schedule", s.schedule),
	)
	return nil
}

// load installs the newest stored configuration, or bootstraps one.
func (s *Service) load(ctx context.Context) error {
	cfg, err := s.store.LatestConfiguration(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		if !s.bootstrap {
			s.logger.Warn(ctx, "no stored configuration; predictions unavailable until a retune")
			return nil
		}
		task, err := s.Retune(ctx, s.bootstrapMode)
		if err != nil {
			return fmt.Errorf("bootstrap retune: %w", err)
		}
		s.logger.Info(ctx, "no stored configuration; bootstrap tuning submitted",
			logger.String("task_id", task.ID),
			logger.String("mode", string(task.Mode)),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	ratings, err := s.store.Ratings(ctx, cfg.ID)
	if err != nil {
		return fmt.Errorf("load ratings %s: %w", cfg.ID, err)
	}
	snap, err := elo.NewSnapshot(cfg.Params, ratings, cfg.MarginStdDev)
	if err != nil {
		return fmt.Errorf("load ratings %s: %w", cfg.ID, err)
	}
	s.install(cfg, snap)
	s.logger.Info(ctx, "loaded stored configuration",
		logger.String("id", cfg.ID),
		logger.String("mode", string(cfg.Mode)),
		logger.Float64("score", cfg.Score),
	)
	return nil
}

// Stop gracefully shuts down the service. Components are stopped outside the
// lock because a finishing task reports back through it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	sched, pool := s.sched, s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping gridiron service...")

	var errs []error
	if sched != nil {
		errs = append(errs, sched.Stop(ctx))
	}
	if pool != nil {
		errs = append(errs, pool.Shutdown(ctx))
	}

	s.logger.Info(ctx, "gridiron service stopped")
	return errors.Join(errs...)
}

// install swaps in a new configuration and snapshot.
func (s *Service) install(cfg model.TunedConfiguration, snap *elo.Snapshot) {
	s.active.Store(&installed{config: cfg, snapshot: snap})
	metrics.UpdateRatingsLoaded(true, len(snap.Ratings()))
	metrics.UpdateTuningBestScore(cfg.Score)
}

// snapshot returns the installed ratings, or nil before the first install.
func (s *Service) snapshot() *elo.Snapshot {
	if in := s.active.Load(); in != nil {
		return in.snapshot
	}
	return nil
}

// Teams returns the ordered team codes.
func (s *Service) Teams() []string {
	return team.All()
}

// Predict returns the home win probability and spread for a matchup.
func (s *Service) Predict(ctx context.Context, home, away string) (elo.Prediction, error) {
	p, err := s.snapshot().Predict(home, away)
	if err != nil {
		metrics.RecordPredictionError(predictionErrorReason(err))
		return elo.Prediction{}, err
	}
	metrics.RecordPrediction()
	s.logger.Debug(ctx, "prediction",
		logger.String("home", p.Home),
		logger.String("away", p.Away),
		logger.Float64("home_win_prob", p.HomeWinProb),
	)
	return p, nil
}

// PredictWithContext predicts a matchup and, when a week is given, attaches
// both teams' normalized roster strength.
func (s *Service) PredictWithContext(ctx context.Context, req PredictRequest) (Prediction, error) {
	p, err := s.Predict(ctx, req.Home, req.Away)
	if err != nil {
		return Prediction{}, err
	}
	out := Prediction{Prediction: p}
	if req.Season <= 0 || req.Week <= 0 {
		return out, nil
	}
	league, err := s.LeagueStrength(ctx, req.Season, req.Week, req.Refresh)
	if err != nil {
		return Prediction{}, err
	}
	home, away := league.Teams[p.Home], league.Teams[p.Away]
	out.HomeStrength, out.AwayStrength = &home, &away
	return out, nil
}

// Strength computes one team's raw roster strength for a week.
func (s *Service) Strength(ctx context.Context, code string, season, week int, refresh bool) (roster.Result, error) {
	t, err := team.Parse(code)
	if err != nil {
		return roster.Result{}, err
	}
	tw, err := s.source.TeamWeek(ctx, t, season, week, refresh)
	if err != nil {
		return roster.Result{}, err
	}
	res, err := s.engine.TeamStrength(ctx, t, tw)
	if err != nil {
		return roster.Result{}, err
	}
	metrics.RecordRosterComputation()
	metrics.RecordMalformedRows("roster", "validation", res.Skipped)
	return res, nil
}

// LeagueStrength computes every team's strength for a week and normalizes it.
// With refresh the week's tables are downloaded once for the whole league.
func (s *Service) LeagueStrength(ctx context.Context, season, week int, refresh bool) (LeagueStrength, error) {
	if refresh {
		if err := s.source.RefreshWeek(ctx, season, week); err != nil {
			return LeagueStrength{}, fmt.Errorf("refresh week: %w", err)
		}
	}
	raw := make(map[string]float64, team.Count)
	detail := make(map[string]roster.Result, team.Count)
	for _, code := range team.All() {
		if err := ctx.Err(); err != nil {
			return LeagueStrength{}, err
		}
		res, err := s.Strength(ctx, code, season, week, false)
		if err != nil {
			return LeagueStrength{}, fmt.Errorf("strength %s: %w", code, err)
		}
		raw[code] = res.Raw
		detail[code] = res
	}
	league, err := normalize.Normalize(raw)
	if err != nil {
		return LeagueStrength{}, err
	}
	out := LeagueStrength{
		Season: season,
		Week:   week,
		Teams:  make(map[string]TeamStrength, team.Count),
		Ranked: league.Ranked(),
		Detail: detail,
	}
	for _, code := range league.Teams() {
		out.Teams[code] = TeamStrength{Raw: league.Raw[code], MinMax: league.MinMax[code], ZScore: league.ZScore[code]}
	}
	return out, nil
}

// InvalidateCache drops cached source tables so the next read downloads
// them again. Games ignore season, week and code. For the personnel kinds,
// week 0 drops the season table, otherwise a code drops one team's week and
// an empty code drops the week for every team.
func (s *Service) InvalidateCache(ctx context.Context, kind model.TableKind, season, week int, code string) (int, error) {
	var keys []cache.Key
	switch kind {
	case model.KindGames:
		keys = append(keys, cache.SeasonKey(model.KindGames, 0))
	case model.KindRosters, model.KindInjuries, model.KindSnaps:
		if season <= 0 || week < 0 {
			return 0, fmt.Errorf("%w: season must be positive and week non-negative", ErrInvalidCacheKey)
		}
		switch {
		case week == 0 && code != "":
			return 0, fmt.Errorf("%w: team needs a week", ErrInvalidCacheKey)
		case week == 0:
			keys = append(keys, cache.SeasonKey(kind, season))
		case code != "":
			t, err := team.Parse(code)
			if err != nil {
				return 0, err
			}
			keys = append(keys, cache.Key{Team: t, Season: season, Week: week, Kind: kind})
		default:
			for _, t := range team.All() {
				keys = append(keys, cache.Key{Team: t, Season: season, Week: week, Kind: kind})
			}
		}
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidCacheKey, kind)
	}

	for _, key := range keys {
		if err := s.source.Invalidate(ctx, key); err != nil {
			return 0, fmt.Errorf("invalidate %s: %w", key, err)
		}
	}
	s.logger.Info(ctx, "cache invalidated",
		logger.String("kind", string(kind)),
		logger.Int("season", season),
		logger.Int("week", week),
		logger.Int("entries", len(keys)),
	)
	return len(keys), nil
}

// Rankings returns teams ordered by current rating.
func (s *Service) Rankings(ctx context.Context) ([]types.Entry, error) {
	return s.snapshot().Rankings()
}

// CurrentConfiguration returns the installed tuned configuration.
func (s *Service) CurrentConfiguration(ctx context.Context) (model.TunedConfiguration, error) {
	in := s.active.Load()
	if in == nil {
		return model.TunedConfiguration{}, elo.ErrUninitializedModel
	}
	return in.config, nil
}

// History lists stored configurations, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]model.TunedConfiguration, error) {
	if limit <= 0 {
		limit = historyLimit
	}
	return s.store.Configurations(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	in := s.active.Load()
	stats := map[string]interface{}{
		"started":         s.started,
		"model_loaded":    in != nil,
		"tasks":           len(s.tasks),
		"tasks_in_flight": s.guard.Size(),
		"retune_schedule": s.schedule,
	}
	if in != nil {
		stats["config_id"] = in.config.ID
		stats["config_mode"] = in.config.Mode
		stats["config_score"] = in.config.Score
		stats["config_created_at"] = in.config.CreatedAt
		stats["rated_teams"] = len(in.snapshot.Ratings())
	}
	if s.started {
		stats["queue_length"] = s.queue.Len(ctx)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	stats["goroutines"] = goroutines
	stats["heap_alloc_bytes"] = mem.HeapAlloc

	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(goroutines)
	metrics.UpdateTasksInFlight(int(s.guard.Size()))
	return stats
}

func predictionErrorReason(err error) string {
	switch {
	case errors.Is(err, team.ErrInvalidTeam):
		return "invalid_team"
	case errors.Is(err, elo.ErrSameTeam):
		return "same_team"
	case errors.Is(err, elo.ErrUninitializedModel):
		return "model_uninitialized"
	default:
		return "internal"
	}
}
