package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gridiron/internal/domain/team"
)

// fakeAPI serves the subset of routes the probe calls.
type fakeAPI struct {
	healthy  bool
	polls    int32
	taskFail bool
	badProb  bool
	predicts int32
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if !f.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/teams", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"teams": team.All()})
	})
	mux.HandleFunc("/retune", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "retune_started", "task_id": "t1", "mode": r.URL.Query().Get("mode"),
		})
	})
	mux.HandleFunc("/retune/t1", func(w http.ResponseWriter, _ *http.Request) {
		t := Task{ID: "t1", Status: "running"}
		if atomic.AddInt32(&f.polls, 1) >= 3 {
			t.Status = "done"
			if f.taskFail {
				t.Status, t.Error = "failed", "no games"
			}
		}
		_ = json.NewEncoder(w).Encode(t)
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.predicts, 1)
		var m Matchup
		_ = json.NewDecoder(r.Body).Decode(&m)
		p := Prediction{Home: m.Home, Away: m.Away, HomeWinProb: 0.58, Spread: 2.5}
		if f.badProb && m.Home < m.Away {
			p.Spread = -2.5
		}
		_ = json.NewEncoder(w).Encode(p)
	})
	return mux
}

func TestGenerateMatchups(t *testing.T) {
	Convey("Given the team list", t, func() {
		teams := team.All()

		Convey("Then pairings use distinct teams", func() {
			ms := generateMatchups(teams, 500, 7, 0, 0)
			So(ms, ShouldHaveLength, 500)
			for _, m := range ms {
				So(m.Home, ShouldNotEqual, m.Away)
			}
		})

		Convey("Then the same seed yields the same list", func() {
			So(generateMatchups(teams, 20, 3, 2023, 5), ShouldResemble, generateMatchups(teams, 20, 3, 2023, 5))
			So(generateMatchups(teams, 1, 3, 2023, 5)[0].Week, ShouldEqual, 5)
		})

		Convey("Then degenerate input yields nothing", func() {
			So(generateMatchups(teams[:1], 5, 1, 0, 0), ShouldBeNil)
			So(generateMatchups(teams, 0, 1, 0, 0), ShouldBeNil)
		})
	})
}

func TestVerifyPrediction(t *testing.T) {
	Convey("Given a matchup", t, func() {
		m := Matchup{Home: "KC", Away: "BUF"}

		Convey("Then a consistent prediction passes", func() {
			So(verifyPrediction(m, Prediction{Home: "KC", Away: "BUF", HomeWinProb: 0.6, Spread: 3}), ShouldBeNil)
			So(verifyPrediction(m, Prediction{Home: "KC", Away: "BUF", HomeWinProb: 0.4, Spread: -3}), ShouldBeNil)
			So(verifyPrediction(m, Prediction{Home: "KC", Away: "BUF", HomeWinProb: 0.5, Spread: 0}), ShouldBeNil)
		})

		Convey("Then probabilities on the boundary fail", func() {
			err := verifyPrediction(m, Prediction{Home: "KC", Away: "BUF", HomeWinProb: 1})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("Then a spread favoring the other side fails", func() {
			err := verifyPrediction(m, Prediction{Home: "KC", Away: "BUF", HomeWinProb: 0.7, Spread: -1})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("Then swapped sides fail", func() {
			err := verifyPrediction(m, Prediction{Home: "BUF", Away: "KC", HomeWinProb: 0.6, Spread: 1})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a fake service", t, func() {
		api := &fakeAPI{healthy: true}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		cfg := &Config{BaseURL: srv.URL, Matchups: 40, Workers: 4, PollInterval: time.Millisecond}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When every prediction is consistent", func() {
			stats, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(stats.Teams, ShouldEqual, 32)
			So(stats.Submitted, ShouldEqual, 40)
			So(stats.Successful, ShouldEqual, 40)
			So(stats.Favorites, ShouldEqual, 40)
			So(stats.Predictions, ShouldHaveLength, 40)
			So(atomic.LoadInt32(&api.predicts), ShouldEqual, 40)
		})

		Convey("When a retune is requested", func() {
			cfg.Retune = true
			stats, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(stats.TaskID, ShouldEqual, "t1")
			So(atomic.LoadInt32(&api.polls), ShouldBeGreaterThanOrEqualTo, 3)
		})

		Convey("When the retune fails", func() {
			cfg.Retune = true
			api.taskFail = true
			_, err := Run(ctx, cfg)
			So(errors.Is(err, ErrTaskFailed), ShouldBeTrue)
			So(atomic.LoadInt32(&api.predicts), ShouldEqual, 0)
		})

		Convey("When some spreads disagree", func() {
			api.badProb = true
			stats, err := Run(ctx, cfg)
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
			So(stats.Violations, ShouldBeGreaterThan, 0)
		})

		Convey("When the service is unhealthy", func() {
			api.healthy = false
			_, err := Run(ctx, cfg)
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}
