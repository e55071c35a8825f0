package service_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/gridiron/internal/adapters/cache"
	"github.com/okian/gridiron/internal/adapters/nflverse"
	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

// mirror serves synthetic nflverse tables and counts downloads per path.
type mirror struct {
	mu    sync.Mutex
	hits  map[string]int
	files map[string]string
}

func newMirror() *mirror {
	var games strings.Builder
	games.WriteString("game_id,season,game_type,week,away_team,away_score,home_team,home_score\n")
	for _, g := range syntheticGames(2021, 2023, 6) {
		fmt.Fprintf(&games, "%d_%02d_%s_%s,%d,REG,%d,%s,%d,%s,%d\n",
			g.Season, g.Week, g.Away, g.Home, g.Season, g.Week, g.Away, g.AwayPoints, g.Home, g.HomePoints)
	}
	// A playoff game and an unplayed game never reach the model.
	games.WriteString("2023_22_ARI_WAS,2023,POST,22,ARI,0,WAS,60\n")
	games.WriteString("2024_01_ARI_WAS,2024,REG,1,ARI,NA,WAS,NA\n")

	var rosters, snaps strings.Builder
	rosters.WriteString("season,week,team,position,depth_chart_position,status,full_name,gsis_id,pfr_id,depth_team\n")
	snaps.WriteString("season,game_type,week,player,pfr_player_id,team,offense_pct,defense_pct,st_pct\n")
	for _, code := range team.All() {
		for week := 1; week <= 4; week++ {
			tw := syntheticWeek(code, 2023, week)
			for _, r := range tw.Roster {
				fmt.Fprintf(&rosters, "2023,%d,%s,%s,%s,%s,%s,%s,%s,%s\n",
					week, r.Team, r.Position, r.Position, r.Status, r.Name, r.PlayerID, r.PFRID, r.Depth)
			}
			for _, s := range tw.Snaps {
				fmt.Fprintf(&snaps, "2023,REG,%d,%s,%s,%s,%.0f,0,0\n", week, s.Name, s.PFRID, s.Team, s.OffensePct*100)
			}
		}
	}
	return &mirror{
		hits: map[string]int{},
		files: map[string]string{
			"/games.csv": games.String(),
			"/release/weekly_rosters/roster_weekly_2023.csv": rosters.String(),
			"/release/snap_counts/snap_counts_2023.csv":      snaps.String(),
		},
	}
}

func (m *mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	body, ok := m.files[r.URL.Path]
	m.hits[r.URL.Path]++
	m.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (m *mirror) count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given the service over an nflverse mirror, a file cache and sqlite", t, func() {
		ctx := context.Background()
		m := newMirror()
		srv := httptest.NewServer(m)
		defer srv.Close()

		client := nflverse.NewClient(cache.NewFileCache(t.TempDir()),
			nflverse.WithGamesURL(srv.URL+"/games.csv"),
			nflverse.WithReleaseURL(srv.URL+"/release"),
			nflverse.WithRetry(2, time.Millisecond),
			nflverse.WithHTTPClient(srv.Client()),
		)
		svc := service.New(client, openStore(t, t.TempDir()),
			service.WithTuner(tuning.New(tuning.WithQuickBudget(4, 2))),
			service.WithBootstrap(true, model.ModeQuick),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		tasks := svc.Tasks(ctx)
		So(len(tasks), ShouldEqual, 1)
		done, err := waitTask(svc, tasks[0].ID)
		So(err, ShouldBeNil)

		Convey("Then bootstrap tuned the latest two seasons", func() {
			So(done.Status, ShouldEqual, model.TaskDone)
			So(done.Result.FirstSeason, ShouldEqual, 2022)
			So(done.Result.LastSeason, ShouldEqual, 2023)
			So(done.Result.Games, ShouldEqual, 2*6*team.Count/2)
			So(done.Result.MarginStdDev, ShouldBeGreaterThan, 0)
		})

		Convey("Then predictions carry a calibrated spread probability", func() {
			p, err := svc.Predict(ctx, "ARI", "WAS")
			So(err, ShouldBeNil)
			So(p.SpreadWinProb, ShouldNotBeNil)
			So(*p.SpreadWinProb, ShouldBeGreaterThan, 0.5)
		})

		Convey("When league strength is requested twice", func() {
			first, err := svc.LeagueStrength(ctx, 2023, 2, false)
			So(err, ShouldBeNil)
			second, err := svc.LeagueStrength(ctx, 2023, 2, false)
			So(err, ShouldBeNil)

			Convey("Then the season tables are downloaded once", func() {
				So(second.Teams, ShouldResemble, first.Teams)
				So(m.count("/release/weekly_rosters/roster_weekly_2023.csv"), ShouldEqual, 1)
				So(m.count("/release/snap_counts/snap_counts_2023.csv"), ShouldEqual, 1)
			})

			Convey("Then the missing injury table does not block strength", func() {
				So(first.Teams["ARI"].Raw, ShouldAlmostEqual, 0.60, 1e-9)
				So(first.Ranked[0].Team, ShouldEqual, "ARI")
			})
		})

		Convey("When a week has no published roster", func() {
			_, err := svc.Strength(ctx, "KC", 2023, 9, false)

			Convey("Then the data is unavailable", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, nflverse.ErrDataUnavailable.Error())
			})
		})
	})
}
