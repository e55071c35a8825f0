package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/adapters/cache"
	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
)

// syntheticGames builds seasons where the team earlier in team.All() always
// wins, so ARI ends strongest and WAS weakest.
func syntheticGames(first, last, weeks int) []model.Game {
	codes := team.All()
	var games []model.Game
	for season := first; season <= last; season++ {
		for w := 1; w <= weeks; w++ {
			for j := 0; j < team.Count/2; j++ {
				a := (j + team.Count/2 + w) % team.Count
				g := model.Game{Season: season, Week: w, Home: codes[j], Away: codes[a]}
				if j < a {
					g.HomePoints, g.AwayPoints = 27, 17
				} else {
					g.HomePoints, g.AwayPoints = 13, 24
				}
				games = append(games, g)
			}
		}
	}
	return games
}

// syntheticWeek gives team index i a starting QB who plays (i+1)/32 of the
// snaps, so strength falls with the index.
func syntheticWeek(code string, season, week int) model.TeamWeek {
	idx := 0
	for i, c := range team.All() {
		if c == code {
			idx = i
		}
	}
	id := "qb-" + code
	return model.TeamWeek{
		Roster: []model.RosterEntry{
			{Season: season, Week: week, Team: code, PlayerID: id, PFRID: id, Name: code + " Passer", Position: "QB", Depth: "1", Status: "ACT"},
			{Season: season, Week: week, Team: code, PlayerID: "wr-" + code, Name: code + " Receiver", Position: "WR", Depth: "1", Status: "ACT"},
		},
		Snaps: []model.SnapEntry{
			{Season: season, Week: week, Team: code, PFRID: id, Name: code + " Passer", OffensePct: float64(team.Count-idx) / team.Count},
		},
	}
}

type fakeSource struct {
	mu       sync.Mutex
	games    []model.Game
	latest   int
	gamesErr error
	gate     chan struct{}
	weekErr  error
	refresh  []bool

	// upstream is the published version of the week tables; cached holds
	// the version each team last read, as a per-team cache would.
	upstream    int
	cached      map[string]int
	refreshes   []string
	invalidated []cache.Key
}

func newFakeSource() *fakeSource {
	return &fakeSource{games: syntheticGames(2022, 2023, 8), latest: 2023, cached: map[string]int{}}
}

func (f *fakeSource) Games(ctx context.Context, first, last int, refresh bool) ([]model.Game, error) {
	f.mu.Lock()
	gate, err := f.gate, f.gamesErr
	f.refresh = append(f.refresh, refresh)
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	var out []model.Game
	for _, g := range f.games {
		if g.Season >= first && g.Season <= last {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeSource) LatestSeason(context.Context) (int, error) { return f.latest, nil }

func (f *fakeSource) TeamWeek(_ context.Context, code string, season, week int, refresh bool) (model.TeamWeek, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.weekErr != nil {
		return model.TeamWeek{}, f.weekErr
	}
	if _, ok := f.cached[code]; refresh || !ok {
		f.cached[code] = f.upstream
	}
	return syntheticWeek(code, season, week), nil
}

func (f *fakeSource) RefreshWeek(_ context.Context, season, week int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.weekErr != nil {
		return f.weekErr
	}
	f.refreshes = append(f.refreshes, fmt.Sprintf("%d/%d", season, week))
	f.cached = map[string]int{}
	return nil
}

func (f *fakeSource) Invalidate(_ context.Context, key cache.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, key)
	return nil
}

// servedVersions reports how many teams hold each cached version.
func (f *fakeSource) servedVersions() map[int]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int]int{}
	for _, v := range f.cached {
		out[v]++
	}
	return out
}

func openStore(t *testing.T, dir string) repository.Store {
	t.Helper()
	s, err := repository.Open(context.Background(), repository.DriverSQLite, filepath.Join(dir, "gridiron.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func waitTask(svc *service.Service, id string) (model.Task, error) {
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		task, err := svc.Task(context.Background(), id)
		if err != nil {
			return task, err
		}
		if task.Status.Finished() {
			return task, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return model.Task{}, errors.New("task did not finish")
}

var errFeedDown = fmt.Errorf("feed down")
