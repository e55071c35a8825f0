package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/adapters/cache"
	"github.com/okian/gridiron/internal/domain/elo"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

func newService(src *fakeSource, dir string, t *testing.T, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithTuner(tuning.New(tuning.WithQuickBudget(3, 2), tuning.WithFullBudget(2, 2022))),
		service.WithSeasons(2022, 0),
	}
	return service.New(src, openStore(t, dir), append(base, opts...)...)
}

func TestService_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := newService(newFakeSource(), t.TempDir(), t)

		Convey("Then retunes are refused", func() {
			_, err := svc.Retune(context.Background(), model.ModeQuick)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then stopping is a no-op", func() {
			So(svc.Stop(context.Background()), ShouldBeNil)
		})
	})
}

func TestService_StopLeavesStoreOpen(t *testing.T) {
	Convey("Given a started service over a store it did not open", t, func() {
		ctx := context.Background()
		store := openStore(t, t.TempDir())
		svc := service.New(newFakeSource(), store, service.WithSeasons(2022, 0))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When the service stops", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the store is still usable by its owner", func() {
				_, err := store.Configurations(ctx, 1)
				So(err, ShouldBeNil)
				So(store.Close(), ShouldBeNil)
			})
		})
	})
}

func TestService_Uninitialized(t *testing.T) {
	Convey("Given a started service with nothing stored and no bootstrap", t, func() {
		ctx := context.Background()
		svc := newService(newFakeSource(), t.TempDir(), t)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then the team list is the fixed 32", func() {
			So(svc.Teams(), ShouldResemble, team.All())
		})

		Convey("Then predictions report an uninitialized model", func() {
			_, err := svc.Predict(ctx, "KC", "BUF")
			So(errors.Is(err, elo.ErrUninitializedModel), ShouldBeTrue)
			_, err = svc.CurrentConfiguration(ctx)
			So(errors.Is(err, elo.ErrUninitializedModel), ShouldBeTrue)
			_, err = svc.Rankings(ctx)
			So(errors.Is(err, elo.ErrUninitializedModel), ShouldBeTrue)
		})

		Convey("Then team validation comes before the model check", func() {
			_, err := svc.Predict(ctx, "ZZZ", "KC")
			So(errors.Is(err, team.ErrInvalidTeam), ShouldBeTrue)
		})

		Convey("Then stats say no model is loaded", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["model_loaded"], ShouldEqual, false)
		})

		Convey("Then an unknown mode is rejected", func() {
			_, err := svc.Retune(ctx, model.Mode("slow"))
			So(errors.Is(err, tuning.ErrInvalidMode), ShouldBeTrue)
		})
	})
}

func TestService_Retune(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		dir := t.TempDir()
		svc := newService(src, dir, t)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a quick retune runs to completion", func() {
			task, err := svc.Retune(ctx, model.ModeQuick)
			So(err, ShouldBeNil)
			So(task.Status, ShouldEqual, model.TaskPending)

			done, err := waitTask(svc, task.ID)
			So(err, ShouldBeNil)

			Convey("Then the task succeeded with a result", func() {
				So(done.Status, ShouldEqual, model.TaskDone)
				So(done.Error, ShouldBeEmpty)
				So(done.StartedAt, ShouldNotBeNil)
				So(done.FinishedAt, ShouldNotBeNil)
				So(done.Result, ShouldNotBeNil)
				So(done.Result.FirstSeason, ShouldEqual, 2022)
				So(done.Result.LastSeason, ShouldEqual, 2023)
				So(done.Result.Trials, ShouldEqual, 3)
			})

			Convey("Then the configuration is installed under the task id", func() {
				cfg, err := svc.CurrentConfiguration(ctx)
				So(err, ShouldBeNil)
				So(cfg.ID, ShouldEqual, task.ID)
				So(cfg.Params.Scoring, ShouldBeTrue)
			})

			Convey("Then predictions favour the stronger side", func() {
				p, err := svc.Predict(ctx, "ARI", "WAS")
				So(err, ShouldBeNil)
				So(p.HomeWinProb, ShouldBeGreaterThan, 0.5)
				So(p.HomeWinProb, ShouldBeLessThan, 1.0)
				So(p.Spread, ShouldBeGreaterThan, 0)

				_, err = svc.Predict(ctx, "KC", "kc")
				So(errors.Is(err, elo.ErrSameTeam), ShouldBeTrue)
			})

			Convey("Then rankings cover every team", func() {
				r, err := svc.Rankings(ctx)
				So(err, ShouldBeNil)
				So(len(r), ShouldEqual, team.Count)
				So(r[0].Rank, ShouldEqual, 1)
			})

			Convey("Then history lists the stored configuration", func() {
				h, err := svc.History(ctx, 0)
				So(err, ShouldBeNil)
				So(len(h), ShouldEqual, 1)
				So(h[0].ID, ShouldEqual, task.ID)
			})

			Convey("Then a restarted service reloads it from the store", func() {
				again := newService(newFakeSource(), dir, t)
				So(again.Start(ctx), ShouldBeNil)
				defer func() { _ = again.Stop(ctx) }()

				cfg, err := again.CurrentConfiguration(ctx)
				So(err, ShouldBeNil)
				So(cfg.ID, ShouldEqual, task.ID)

				p1, _ := svc.Predict(ctx, "ARI", "WAS")
				p2, err := again.Predict(ctx, "ARI", "WAS")
				So(err, ShouldBeNil)
				So(p2.HomeWinProb, ShouldAlmostEqual, p1.HomeWinProb, 1e-9)
			})
		})

		Convey("When a second retune arrives while the first is pending", func() {
			src.mu.Lock()
			src.gate = make(chan struct{})
			src.mu.Unlock()

			first, err := svc.Retune(ctx, model.ModeQuick)
			So(err, ShouldBeNil)
			_, err = svc.Retune(ctx, model.ModeFull)

			Convey("Then it is rejected, not queued", func() {
				So(errors.Is(err, service.ErrTuningInProgress), ShouldBeTrue)
				So(len(svc.Tasks(ctx)), ShouldEqual, 1)

				close(src.gate)
				done, err := waitTask(svc, first.ID)
				So(err, ShouldBeNil)
				So(done.Status, ShouldEqual, model.TaskDone)

				next, err := svc.Retune(ctx, model.ModeFull)
				So(err, ShouldBeNil)
				_, err = waitTask(svc, next.ID)
				So(err, ShouldBeNil)
			})
		})

		Convey("When tuning fails after a good configuration is installed", func() {
			good, err := svc.Retune(ctx, model.ModeQuick)
			So(err, ShouldBeNil)
			_, err = waitTask(svc, good.ID)
			So(err, ShouldBeNil)

			src.mu.Lock()
			src.gamesErr = errFeedDown
			src.mu.Unlock()

			bad, err := svc.Retune(ctx, model.ModeQuick)
			So(err, ShouldBeNil)
			done, err := waitTask(svc, bad.ID)
			So(err, ShouldBeNil)

			Convey("Then the task fails and the previous configuration survives", func() {
				So(done.Status, ShouldEqual, model.TaskFailed)
				So(done.Error, ShouldContainSubstring, "feed down")
				cfg, err := svc.CurrentConfiguration(ctx)
				So(err, ShouldBeNil)
				So(cfg.ID, ShouldEqual, good.ID)
			})
		})

		Convey("When the season range holds no games", func() {
			task, err := svc.Submit(ctx, model.TuneJob{Mode: model.ModeQuick, FirstSeason: 1990, LastSeason: 1991})
			So(err, ShouldBeNil)
			done, err := waitTask(svc, task.ID)
			So(err, ShouldBeNil)

			Convey("Then the task fails with no games", func() {
				So(done.Status, ShouldEqual, model.TaskFailed)
				So(done.Error, ShouldContainSubstring, tuning.ErrNoGames.Error())
				_, err := svc.CurrentConfiguration(ctx)
				So(errors.Is(err, elo.ErrUninitializedModel), ShouldBeTrue)
			})
		})

		Convey("When a reversed range is submitted", func() {
			_, err := svc.Submit(ctx, model.TuneJob{Mode: model.ModeQuick, FirstSeason: 2023, LastSeason: 2022})
			So(errors.Is(err, tuning.ErrInvalidRange), ShouldBeTrue)
		})
	})
}

func TestService_Bootstrap(t *testing.T) {
	Convey("Given an empty store and bootstrap enabled", t, func() {
		ctx := context.Background()
		svc := newService(newFakeSource(), t.TempDir(), t, service.WithBootstrap(true, model.ModeQuick))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then an initial task is submitted and installs a model", func() {
			tasks := svc.Tasks(ctx)
			So(len(tasks), ShouldEqual, 1)
			done, err := waitTask(svc, tasks[0].ID)
			So(err, ShouldBeNil)
			So(done.Status, ShouldEqual, model.TaskDone)
			_, err = svc.Predict(ctx, "KC", "BUF")
			So(err, ShouldBeNil)
		})
	})
}

func TestService_Strength(t *testing.T) {
	Convey("Given a service over synthetic rosters", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		svc := newService(src, t.TempDir(), t)

		Convey("When one team is computed", func() {
			res, err := svc.Strength(ctx, "ari", 2023, 5, false)
			So(err, ShouldBeNil)

			Convey("Then QB and skill rows count", func() {
				So(res.Team, ShouldEqual, "ARI")
				So(res.Counted, ShouldEqual, 2)
				So(res.Raw, ShouldAlmostEqual, 0.40+0.20, 1e-9)
			})
		})

		Convey("When the team is unknown", func() {
			_, err := svc.Strength(ctx, "ZZZ", 2023, 5, false)
			So(errors.Is(err, team.ErrInvalidTeam), ShouldBeTrue)
		})

		Convey("When the whole league is computed", func() {
			league, err := svc.LeagueStrength(ctx, 2023, 5, false)
			So(err, ShouldBeNil)

			Convey("Then all scales are filled", func() {
				So(len(league.Teams), ShouldEqual, team.Count)
				So(league.Teams["ARI"].MinMax, ShouldAlmostEqual, 1.0, 1e-9)
				So(league.Teams["WAS"].MinMax, ShouldAlmostEqual, 0.0, 1e-9)
				So(league.Teams["ARI"].ZScore, ShouldBeGreaterThan, 0)
				So(league.Ranked[0].Team, ShouldEqual, "ARI")
			})
		})

		Convey("When the data feed is down", func() {
			src.weekErr = errFeedDown
			_, err := svc.LeagueStrength(ctx, 2023, 5, false)
			So(errors.Is(err, errFeedDown), ShouldBeTrue)
		})

		Convey("When the league is refreshed after the upstream changes", func() {
			_, err := svc.LeagueStrength(ctx, 2023, 5, false)
			So(err, ShouldBeNil)
			So(src.servedVersions(), ShouldResemble, map[int]int{0: team.Count})

			src.mu.Lock()
			src.upstream = 1
			src.mu.Unlock()

			Convey("Then a plain read keeps every team on the cached tables", func() {
				_, err := svc.LeagueStrength(ctx, 2023, 5, false)
				So(err, ShouldBeNil)
				So(src.servedVersions(), ShouldResemble, map[int]int{0: team.Count})
				So(src.refreshes, ShouldBeEmpty)
			})

			Convey("Then a refresh reaches every team with one download", func() {
				_, err := svc.LeagueStrength(ctx, 2023, 5, true)
				So(err, ShouldBeNil)
				So(src.servedVersions(), ShouldResemble, map[int]int{1: team.Count})
				So(src.refreshes, ShouldResemble, []string{"2023/5"})
			})
		})

		Convey("When a refresh cannot reach the feed", func() {
			src.weekErr = errFeedDown
			_, err := svc.LeagueStrength(ctx, 2023, 5, true)
			So(errors.Is(err, errFeedDown), ShouldBeTrue)
		})
	})
}

func TestService_InvalidateCache(t *testing.T) {
	Convey("Given a service over a cached source", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		svc := newService(src, t.TempDir(), t)

		Convey("When games are dropped", func() {
			n, err := svc.InvalidateCache(ctx, model.KindGames, 2023, 5, "KC")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(src.invalidated, ShouldResemble, []cache.Key{cache.SeasonKey(model.KindGames, 0)})
		})

		Convey("When a season table is dropped", func() {
			n, err := svc.InvalidateCache(ctx, model.KindSnaps, 2023, 0, "")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(src.invalidated[0], ShouldResemble, cache.SeasonKey(model.KindSnaps, 2023))
		})

		Convey("When one team week is dropped", func() {
			n, err := svc.InvalidateCache(ctx, model.KindRosters, 2023, 5, "kc")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(src.invalidated[0], ShouldResemble, cache.Key{Team: "KC", Season: 2023, Week: 5, Kind: model.KindRosters})
		})

		Convey("When a league week is dropped", func() {
			n, err := svc.InvalidateCache(ctx, model.KindInjuries, 2023, 5, "")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, team.Count)
			So(len(src.invalidated), ShouldEqual, team.Count)
		})

		Convey("When the request is malformed", func() {
			_, err := svc.InvalidateCache(ctx, model.TableKind("odds"), 2023, 5, "")
			So(errors.Is(err, service.ErrInvalidCacheKey), ShouldBeTrue)
			_, err = svc.InvalidateCache(ctx, model.KindRosters, 0, 5, "")
			So(errors.Is(err, service.ErrInvalidCacheKey), ShouldBeTrue)
			_, err = svc.InvalidateCache(ctx, model.KindRosters, 2023, 0, "KC")
			So(errors.Is(err, service.ErrInvalidCacheKey), ShouldBeTrue)
			_, err = svc.InvalidateCache(ctx, model.KindRosters, 2023, 5, "ZZZ")
			So(errors.Is(err, team.ErrInvalidTeam), ShouldBeTrue)
			So(src.invalidated, ShouldBeEmpty)
		})
	})
}

func TestService_PredictWithContext(t *testing.T) {
	Convey("Given a tuned service", t, func() {
		ctx := context.Background()
		svc := newService(newFakeSource(), t.TempDir(), t)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		task, err := svc.Retune(ctx, model.ModeQuick)
		So(err, ShouldBeNil)
		_, err = waitTask(svc, task.ID)
		So(err, ShouldBeNil)

		Convey("Without a week no strengths are attached", func() {
			p, err := svc.PredictWithContext(ctx, service.PredictRequest{Home: "ARI", Away: "WAS"})
			So(err, ShouldBeNil)
			So(p.HomeStrength, ShouldBeNil)
			So(p.AwayStrength, ShouldBeNil)
		})

		Convey("With a week both strengths are attached", func() {
			p, err := svc.PredictWithContext(ctx, service.PredictRequest{Home: "ARI", Away: "WAS", Season: 2023, Week: 3})
			So(err, ShouldBeNil)
			So(p.HomeStrength, ShouldNotBeNil)
			So(p.AwayStrength, ShouldNotBeNil)
			So(p.HomeStrength.MinMax, ShouldAlmostEqual, 1.0, 1e-9)
			So(p.AwayStrength.MinMax, ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}
