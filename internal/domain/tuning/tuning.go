// Package tuning searches the rating model's hyperparameters by replaying
// historical seasons.
package tuning

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/gridiron/internal/domain/elo"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
)

// Default tuning budgets.
const (
	DefaultSeed         = 42
	DefaultQuickTrials  = 15
	DefaultQuickSeasons = 6
	DefaultFullTrials   = 50
	DefaultFirstSeason  = 2010
)

// Request fixes the season range and trial budget of a run.
type Request struct {
	Mode        model.Mode
	FirstSeason int
	LastSeason  int
	Trials      int
}

// Trial is one evaluated candidate.
type Trial struct {
	Index  int          `json:"index"`
	Params model.Params `json:"params"`
	Score  float64      `json:"score"`
}

// Outcome is the result of a tuning run.
type Outcome struct {
	Config   model.TunedConfiguration
	Snapshot *elo.Snapshot
	Trials   []Trial
}

// Tuner runs seeded random search. It is safe for concurrent use; each run
// owns its random source.
type Tuner struct {
	seed         int64
	metric       Metric
	space        Space
	base         model.Params
	quickTrials  int
	quickSeasons int
	fullTrials   int
	firstSeason  int
	onTrial      func(Trial)
	log          logger.Logger
	now          func() time.Time
}

// New creates a tuner with default budgets, then applies opts.
func New(opts ...Option) *Tuner {
	t := &Tuner{
		seed:         DefaultSeed,
		metric:       MetricBrier,
		space:        DefaultSpace(),
		base:         model.Params{Scoring: true, EloToPoints: elo.DefaultEloToPoints},
		quickTrials:  DefaultQuickTrials,
		quickSeasons: DefaultQuickSeasons,
		fullTrials:   DefaultFullTrials,
		firstSeason:  DefaultFirstSeason,
		log:          logger.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Plan resolves a mode into a concrete request ending at latest.
func (t *Tuner) Plan(mode model.Mode, latest int) (Request, error) {
	switch mode {
	case model.ModeQuick:
		return Request{Mode: mode, FirstSeason: latest - t.quickSeasons + 1, LastSeason: latest, Trials: t.quickTrials}, nil
	case model.ModeFull:
		first := t.firstSeason
		if first > latest {
			first = latest
		}
		return Request{Mode: mode, FirstSeason: first, LastSeason: latest, Trials: t.fullTrials}, nil
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// Tune evaluates req.Trials candidates over the games in the request range
// and keeps the best. Every trial replays the range from the baseline and is
// scored on predictions made before each update in the validation window:
// the last season in range, or every game when the range is one season.
// A later trial replaces the best only when strictly better.
func (t *Tuner) Tune(ctx context.Context, games []model.Game, req Request) (Outcome, error) {
	if req.FirstSeason > req.LastSeason {
		return Outcome{}, fmt.Errorf("%w: %d-%d", ErrInvalidRange, req.FirstSeason, req.LastSeason)
	}
	if req.Trials <= 0 {
		req.Trials = 1
	}

	inRange := make([]model.Game, 0, len(games))
	lastSeen := 0
	for _, g := range games {
		if g.Season < req.FirstSeason || g.Season > req.LastSeason {
			continue
		}
		inRange = append(inRange, g)
		lastSeen = max(lastSeen, g.Season)
	}
	if len(inRange) == 0 {
		return Outcome{}, fmt.Errorf("%w: %d-%d", ErrNoGames, req.FirstSeason, req.LastSeason)
	}
	inRange = elo.SortGames(inRange)
	validate := func(g model.Game) bool { return g.Season == lastSeen }

	start := t.now()
	rng := rand.New(rand.NewSource(t.seed)) //nolint:gosec // reproducible search
	trials := make([]Trial, 0, req.Trials)
	best := Trial{Index: -1, Score: math.Inf(1)}

	for i := 0; i < req.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("tuning cancelled after %d trials: %w", i, err)
		}
		p := t.space.sample(rng, t.base)
		run := replay(p, inRange, validate)
		tr := Trial{Index: i, Params: p, Score: t.metric.Score(run.preds, run.outcomes)}
		trials = append(trials, tr)
		if tr.Score < best.Score {
			best = tr
		}
		if t.onTrial != nil {
			t.onTrial(tr)
		}
		t.log.Debug(ctx, "trial finished",
			logger.Int("trial", i),
			logger.Float64("score", tr.Score),
			logger.Bool("best", best.Index == i),
		)
	}
	if best.Index < 0 {
		return Outcome{}, fmt.Errorf("%w: no trial produced a finite score", ErrNoGames)
	}

	final := replay(best.Params, inRange, validate)
	cfg := model.TunedConfiguration{
		Mode:         req.Mode,
		Params:       best.Params,
		FirstSeason:  req.FirstSeason,
		LastSeason:   req.LastSeason,
		Trials:       req.Trials,
		Metric:       string(t.metric),
		Score:        best.Score,
		MarginStdDev: final.residualStdDev(),
		Games:        final.applied,
		CreatedAt:    t.now().UTC(),
	}

	t.log.Info(ctx, "tuning finished",
		logger.String("mode", string(req.Mode)),
		logger.Int("trials", req.Trials),
		logger.Int("games", final.applied),
		logger.Float64("score", best.Score),
		logger.Int("best_trial", best.Index),
		logger.Duration("elapsed", t.now().Sub(start)),
	)

	return Outcome{
		Config:   cfg,
		Snapshot: final.model.Snapshot(cfg.MarginStdDev),
		Trials:   trials,
	}, nil
}

type replayRun struct {
	model     *elo.Model
	preds     []float64
	outcomes  []float64
	residuals []float64
	applied   int
}

// replay runs games through a fresh model, recording pre-game predictions in
// the validation window and spread residuals over the whole range.
func replay(p model.Params, games []model.Game, validate func(model.Game) bool) replayRun {
	run := replayRun{model: elo.New(p)}
	for _, g := range games {
		ra, errA := run.model.Rating(g.Home)
		rb, errB := run.model.Rating(g.Away)
		u, err := run.model.Apply(g)
		if err != nil || errA != nil || errB != nil {
			continue
		}
		run.applied++
		run.residuals = append(run.residuals, float64(g.Margin())-elo.Spread(p, ra, rb))
		if validate(g) {
			run.preds = append(run.preds, u.Expected)
			run.outcomes = append(run.outcomes, g.Score())
		}
	}
	return run
}

func (r replayRun) residualStdDev() float64 {
	if len(r.residuals) == 0 {
		return 0
	}
	var ss float64
	for _, v := range r.residuals {
		ss += v * v
	}
	return math.Sqrt(ss / float64(len(r.residuals)))
}
