package tuning_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

// season builds a 16-game synthetic season where lower-indexed teams are stronger.
func season(year int) []model.Game {
	codes := team.All()
	games := make([]model.Game, 0, 16)
	for i := 0; i < 16; i++ {
		home, away := codes[i], codes[31-i]
		hp, ap := 24+i%3, 17+i%5
		if i%4 == 3 {
			hp, ap = ap, hp
		}
		games = append(games, model.Game{Season: year, Week: i/8 + 1, Home: home, Away: away, HomePoints: hp, AwayPoints: ap})
	}
	return games
}

func TestPlan(t *testing.T) {
	Convey("Given a default tuner", t, func() {
		tu := tuning.New()

		Convey("Then quick covers the latest six seasons with 15 trials", func() {
			r, err := tu.Plan(model.ModeQuick, 2024)
			So(err, ShouldBeNil)
			So(r, ShouldResemble, tuning.Request{Mode: model.ModeQuick, FirstSeason: 2019, LastSeason: 2024, Trials: 15})
		})

		Convey("Then full starts in 2010 with 50 trials", func() {
			r, err := tu.Plan(model.ModeFull, 2024)
			So(err, ShouldBeNil)
			So(r, ShouldResemble, tuning.Request{Mode: model.ModeFull, FirstSeason: 2010, LastSeason: 2024, Trials: 50})
		})

		Convey("Then unknown modes are rejected", func() {
			_, err := tu.Plan("medium", 2024)
			So(errors.Is(err, tuning.ErrInvalidMode), ShouldBeTrue)
		})
	})

	Convey("Given custom budgets", t, func() {
		tu := tuning.New(tuning.WithQuickBudget(3, 2), tuning.WithFullBudget(7, 2015))
		r, _ := tu.Plan(model.ModeQuick, 2020)
		So(r.FirstSeason, ShouldEqual, 2019)
		So(r.Trials, ShouldEqual, 3)
		r, _ = tu.Plan(model.ModeFull, 2020)
		So(r.FirstSeason, ShouldEqual, 2015)
		So(r.Trials, ShouldEqual, 7)
	})
}

func TestTune(t *testing.T) {
	ctx := context.Background()

	Convey("Given a one-season 16-game history", t, func() {
		games := season(2023)
		req := tuning.Request{Mode: model.ModeQuick, FirstSeason: 2023, LastSeason: 2023, Trials: 15}

		Convey("When tuning twice with the same seed", func() {
			a, errA := tuning.New(tuning.WithSeed(42)).Tune(ctx, games, req)
			b, errB := tuning.New(tuning.WithSeed(42)).Tune(ctx, games, req)
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)

			Convey("Then the selected configuration is identical", func() {
				So(a.Config.Params, ShouldResemble, b.Config.Params)
				So(a.Config.Score, ShouldEqual, b.Config.Score)
				So(a.Snapshot.Ratings(), ShouldResemble, b.Snapshot.Ratings())
			})

			Convey("Then the outcome describes the run", func() {
				So(len(a.Trials), ShouldEqual, 15)
				So(a.Config.Trials, ShouldEqual, 15)
				So(a.Config.Games, ShouldEqual, 16)
				So(a.Config.Metric, ShouldEqual, "brier")
				So(a.Config.MarginStdDev, ShouldBeGreaterThan, 0)
				for _, tr := range a.Trials {
					So(a.Config.Score, ShouldBeLessThanOrEqualTo, tr.Score)
				}
			})

			Convey("Then the earliest best trial wins", func() {
				first := -1
				for _, tr := range a.Trials {
					if tr.Score == a.Config.Score {
						first = tr.Index
						break
					}
				}
				So(a.Trials[first].Params, ShouldResemble, a.Config.Params)
			})

			Convey("Then sampled parameters stay in the search space", func() {
				s := tuning.DefaultSpace()
				for _, tr := range a.Trials {
					So(tr.Params.K, ShouldBeBetweenOrEqual, s.K.Min, s.K.Max)
					So(tr.Params.Home, ShouldBeBetweenOrEqual, s.Home.Min, s.Home.Max)
					So(tr.Params.PExp, ShouldBeBetweenOrEqual, s.PExp.Min, s.PExp.Max)
					So(tr.Params.DBase, ShouldBeBetweenOrEqual, s.DBase.Min, s.DBase.Max)
					So(tr.Params.Scoring, ShouldBeTrue)
				}
			})
		})

		Convey("When trials are observed through the hook", func() {
			space := tuning.Space{
				K: tuning.Range{Min: 20, Max: 20}, Home: tuning.Range{Min: 0, Max: 50},
				PAdd: tuning.Range{Min: 1, Max: 1}, PExp: tuning.Range{Min: 1, Max: 1},
				DBase: tuning.Range{Min: 800, Max: 800}, DSlope: tuning.Range{Min: 0, Max: 0},
			}
			var seen []tuning.Trial
			out, err := tuning.New(tuning.WithSpace(space), tuning.WithTrialHook(func(tr tuning.Trial) { seen = append(seen, tr) })).
				Tune(ctx, games, tuning.Request{FirstSeason: 2023, LastSeason: 2023, Trials: 5})
			So(err, ShouldBeNil)
			So(len(seen), ShouldEqual, 5)

			Convey("Then the lowest score is kept and ties keep the earliest", func() {
				bestIdx := 0
				for i, tr := range seen {
					if tr.Score < seen[bestIdx].Score {
						bestIdx = i
					}
				}
				So(out.Config.Params, ShouldResemble, seen[bestIdx].Params)
			})
		})

		Convey("When scoring by log-loss", func() {
			out, err := tuning.New(tuning.WithMetric(tuning.MetricLogLoss)).Tune(ctx, games, req)
			So(err, ShouldBeNil)
			So(out.Config.Metric, ShouldEqual, "logloss")
			So(math.IsInf(out.Config.Score, 0), ShouldBeFalse)
		})
	})

	Convey("Given a multi-season history", t, func() {
		games := append(season(2021), season(2022)...)
		games = append(games, season(2023)...)

		Convey("When the range excludes every game", func() {
			_, err := tuning.New().Tune(ctx, games, tuning.Request{FirstSeason: 2030, LastSeason: 2031, Trials: 3})
			So(errors.Is(err, tuning.ErrNoGames), ShouldBeTrue)
		})

		Convey("When the range is inverted", func() {
			_, err := tuning.New().Tune(ctx, games, tuning.Request{FirstSeason: 2023, LastSeason: 2021, Trials: 3})
			So(errors.Is(err, tuning.ErrInvalidRange), ShouldBeTrue)
		})

		Convey("When the range covers part of the history", func() {
			out, err := tuning.New().Tune(ctx, games, tuning.Request{FirstSeason: 2022, LastSeason: 2023, Trials: 4})
			So(err, ShouldBeNil)
			So(out.Config.Games, ShouldEqual, 32)
			So(out.Config.FirstSeason, ShouldEqual, 2022)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := tuning.New().Tune(cctx, games, tuning.Request{FirstSeason: 2021, LastSeason: 2023, Trials: 3})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestMetric(t *testing.T) {
	Convey("Given predictions and outcomes", t, func() {
		preds := []float64{0.8, 0.3, 0.5}
		outs := []float64{1, 0, 0.5}

		Convey("Then Brier is the mean squared error", func() {
			want := (0.04 + 0.09 + 0) / 3
			So(math.Abs(tuning.MetricBrier.Score(preds, outs)-want), ShouldBeLessThan, 1e-12)
		})

		Convey("Then log-loss is finite even for certain predictions", func() {
			So(math.IsInf(tuning.MetricLogLoss.Score([]float64{1, 0}, []float64{0, 1}), 0), ShouldBeFalse)
		})

		Convey("Then no predictions scores infinitely bad", func() {
			So(math.IsInf(tuning.MetricBrier.Score(nil, nil), 1), ShouldBeTrue)
		})
	})
}
