// Package nflverse downloads schedule, roster, injury and snap count tables
// from the public nflverse data releases, caching every download.
package nflverse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/gridiron/internal/adapters/cache"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultReleaseURL = "https://github.com/nflverse/nflverse-data/releases/download"
	DefaultGamesURL   = "https://raw.githubusercontent.com/nflverse/nfldata/master/data/games.csv"

	defaultAttempts  = 3
	defaultBackoff   = 500 * time.Millisecond
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "gridiron/1.0"
	maxErrorBody     = 1024
)

// Client fetches tables through a cache.
type Client struct {
	http       *http.Client
	cache      cache.Cache
	releaseURL string
	gamesURL   string
	userAgent  string
	attempts   int
	backoff    time.Duration
	log        logger.Logger
}

// NewClient creates a client that reads and writes c.
func NewClient(c cache.Cache, opts ...Option) *Client {
	cl := &Client{
		http:       &http.Client{Timeout: defaultTimeout},
		cache:      c,
		releaseURL: DefaultReleaseURL,
		gamesURL:   DefaultGamesURL,
		userAgent:  defaultUserAgent,
		attempts:   defaultAttempts,
		backoff:    defaultBackoff,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Games returns completed regular-season games with first <= season <= last.
// The schedule file covers every season, so it is cached once under season 0.
func (c *Client) Games(ctx context.Context, first, last int, refresh bool) ([]model.Game, error) {
	blob, err := c.fetch(ctx, cache.SeasonKey(model.KindGames, 0), c.gamesURL, refresh)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseGames(blob)
	if err != nil {
		return nil, fmt.Errorf("parse games: %w", err)
	}
	c.malformed(ctx, model.KindGames, parsed.Malformed)

	out := make([]model.Game, 0, len(parsed.Rows))
	for _, g := range parsed.Rows {
		if g.Season >= first && g.Season <= last {
			out = append(out, g)
		}
	}
	return out, nil
}

// LatestSeason returns the most recent season with at least one completed game.
func (c *Client) LatestSeason(ctx context.Context) (int, error) {
	games, err := c.Games(ctx, 0, 1<<30, false)
	if err != nil {
		return 0, err
	}
	latest := 0
	for _, g := range games {
		latest = max(latest, g.Season)
	}
	if latest == 0 {
		return 0, fmt.Errorf("%w: no completed games", ErrDataUnavailable)
	}
	return latest, nil
}

// TeamWeek returns the roster, injury and snap tables for one team and week.
// Each table is cached per team week; a miss is filled from the cached
// league-wide season table, which is downloaded when absent.
func (c *Client) TeamWeek(ctx context.Context, code string, season, week int, refresh bool) (model.TeamWeek, error) {
	t, err := team.Parse(code)
	if err != nil {
		return model.TeamWeek{}, err
	}
	var tw model.TeamWeek

	blob, err := c.teamTable(ctx, model.KindRosters, t, season, week, refresh)
	if err != nil {
		return model.TeamWeek{}, err
	}
	rosters, err := ParseRoster(blob)
	if err != nil {
		return model.TeamWeek{}, fmt.Errorf("parse roster: %w", err)
	}
	c.malformed(ctx, model.KindRosters, rosters.Malformed)
	if len(rosters.Rows) == 0 {
		return model.TeamWeek{}, fmt.Errorf("%w: no roster for %s %d week %d", ErrDataUnavailable, t, season, week)
	}
	tw.Roster = rosters.Rows

	// Injury and snap tables are optional inputs; their absence degrades the
	// multipliers to 1.0 instead of failing the computation.
	if blob, err := c.teamTable(ctx, model.KindInjuries, t, season, week, refresh); err == nil {
		if p, err := ParseInjuries(blob); err == nil {
			c.malformed(ctx, model.KindInjuries, p.Malformed)
			tw.Injuries = p.Rows
		}
	} else {
		c.log.Warn(ctx, "injury table unavailable", logger.String("team", t), logger.Int("season", season), logger.Error(err))
	}
	if blob, err := c.teamTable(ctx, model.KindSnaps, t, season, week, refresh); err == nil {
		if p, err := ParseSnaps(blob); err == nil {
			c.malformed(ctx, model.KindSnaps, p.Malformed)
			tw.Snaps = p.Rows
		}
	} else {
		c.log.Warn(ctx, "snap table unavailable", logger.String("team", t), logger.Int("season", season), logger.Error(err))
	}
	return tw, nil
}

// Invalidate drops a cached table.
func (c *Client) Invalidate(ctx context.Context, key cache.Key) error {
	return c.cache.Invalidate(ctx, key)
}

// RefreshWeek downloads the season tables behind one week again and drops
// every team's cached slice of that week, so the following TeamWeek calls
// refill from the new download. A failed roster download is an error; the
// optional tables keep their cached slices when their download fails.
func (c *Client) RefreshWeek(ctx context.Context, season, week int) error {
	for _, kind := range []model.TableKind{model.KindRosters, model.KindInjuries, model.KindSnaps} {
		if _, err := c.fetch(ctx, cache.SeasonKey(kind, season), c.seasonURL(kind, season), true); err != nil {
			if kind == model.KindRosters {
				return err
			}
			c.log.Warn(ctx, "season table refresh failed", logger.String("kind", string(kind)), logger.Int("season", season), logger.Error(err))
			continue
		}
		for _, code := range team.All() {
			key := cache.Key{Team: code, Season: season, Week: week, Kind: kind}
			if err := c.cache.Invalidate(ctx, key); err != nil {
				return fmt.Errorf("invalidate %s: %w", key, err)
			}
		}
	}
	return nil
}

func (c *Client) teamTable(ctx context.Context, kind model.TableKind, code string, season, week int, refresh bool) ([]byte, error) {
	key := cache.Key{Team: code, Season: season, Week: week, Kind: kind}
	if !refresh {
		if blob, err := c.cache.Get(ctx, key); err == nil {
			metrics.RecordCacheHit(string(kind))
			return blob, nil
		}
	}

	seasonBlob, err := c.fetch(ctx, cache.SeasonKey(kind, season), c.seasonURL(kind, season), refresh)
	if err != nil {
		return nil, err
	}
	blob, kept, err := filterCSV(seasonBlob, func(h header, rec []string) bool {
		w, err := intField(rec, h.col("week"))
		if err != nil || w != week {
			return false
		}
		t, err := team.Parse(field(rec, h.col("team")))
		return err == nil && t == code
	})
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", kind, err)
	}
	if kept == 0 {
		// Weeks not yet published stay uncached so a later call can fill them.
		return blob, nil
	}
	if err := c.cache.Put(ctx, key, blob); err != nil {
		c.log.Warn(ctx, "cache write failed", logger.String("key", key.String()), logger.Error(err))
	}
	return blob, nil
}

func (c *Client) seasonURL(kind model.TableKind, season int) string {
	switch kind {
	case model.KindRosters:
		return fmt.Sprintf("%s/weekly_rosters/roster_weekly_%d.csv", c.releaseURL, season)
	case model.KindInjuries:
		return fmt.Sprintf("%s/injuries/injuries_%d.csv", c.releaseURL, season)
	case model.KindSnaps:
		return fmt.Sprintf("%s/snap_counts/snap_counts_%d.csv", c.releaseURL, season)
	default:
		return c.gamesURL
	}
}

// fetch returns the cached blob for key or downloads url into it.
func (c *Client) fetch(ctx context.Context, key cache.Key, url string, refresh bool) ([]byte, error) {
	if !refresh {
		blob, err := c.cache.Get(ctx, key)
		if err == nil {
			metrics.RecordCacheHit(string(key.Kind))
			return blob, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn(ctx, "cache read failed", logger.String("key", key.String()), logger.Error(err))
		}
	}
	metrics.RecordCacheMiss(string(key.Kind))

	blob, err := c.download(ctx, string(key.Kind), url)
	if err != nil {
		metrics.RecordFetchError(string(key.Kind))
		return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, key, err)
	}
	if err := c.cache.Put(ctx, key, blob); err != nil {
		c.log.Warn(ctx, "cache write failed", logger.String("key", key.String()), logger.Error(err))
	}
	return blob, nil
}

// download GETs url, retrying with exponential backoff.
func (c *Client) download(ctx context.Context, kind, url string) ([]byte, error) {
	var lastErr error
	wait := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			metrics.RecordFetchRetry()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}
		start := time.Now()
		body, err := c.get(ctx, url)
		metrics.RecordFetchLatency(kind, float64(time.Since(start).Milliseconds()))
		if err == nil {
			c.log.Debug(ctx, "downloaded table", logger.String("url", url), logger.Int("bytes", len(body)))
			return body, nil
		}
		lastErr = err
		c.log.Warn(ctx, "download failed", logger.String("url", url), logger.Int("attempt", attempt), logger.Error(err))
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

var errPermanent = errors.New("permanent http failure")

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("GET %s: %s (%s)", url, resp.Status, strings.TrimSpace(string(b)))
		if resp.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %w", errPermanent, err)
		}
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (c *Client) malformed(ctx context.Context, kind model.TableKind, n int) {
	if n == 0 {
		return
	}
	metrics.RecordMalformedRows(string(kind), "parse", n)
	c.log.Debug(ctx, "skipped malformed rows", logger.String("table", string(kind)), logger.Int("rows", n))
}
