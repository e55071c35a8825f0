// Package config defines service configuration structures and loading hooks.
//
// Values are layered defaults, then an optional YAML file, then environment
// variables. See Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/gridiron/internal/domain/elo"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/roster"
	"github.com/okian/gridiron/internal/domain/tuning"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	Cache     CacheConfig     `koanf:"cache"`
	Data      DataConfig      `koanf:"data"`
	Store     StoreConfig     `koanf:"store"`
	Seasons   SeasonsConfig   `koanf:"seasons"`
	Tuning    TuningConfig    `koanf:"tuning"`
	Model     ModelConfig     `koanf:"model"`
	Roster    RosterConfig    `koanf:"roster"`
	Bootstrap BootstrapConfig `koanf:"bootstrap"`
	MCP       MCPConfig       `koanf:"mcp"`

	// RetuneSchedule is a standard five-field cron expression. Empty disables it.
	RetuneSchedule string `koanf:"retune_schedule"`
}

// CacheConfig selects the raw data cache backend.
type CacheConfig struct {
	Backend   string        `koanf:"backend"`
	Dir       string        `koanf:"dir"`
	TTL       time.Duration `koanf:"ttl"`
	RedisAddr string        `koanf:"redis_addr"`
}

// DataConfig controls nflverse downloads.
type DataConfig struct {
	GamesURL   string        `koanf:"games_url"`
	ReleaseURL string        `koanf:"release_url"`
	Timeout    time.Duration `koanf:"timeout"`
	Retries    int           `koanf:"retries"`
	Backoff    time.Duration `koanf:"backoff"`
}

// StoreConfig selects the configuration store.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// SeasonsConfig bounds the seasons used for tuning. Last 0 means the latest
// season present in the games table.
type SeasonsConfig struct {
	First int `koanf:"first"`
	Last  int `koanf:"last"`
}

// TuningConfig holds the search settings.
type TuningConfig struct {
	Seed         int64        `koanf:"seed"`
	Metric       string       `koanf:"metric"`
	QuickTrials  int          `koanf:"quick_trials"`
	QuickSeasons int          `koanf:"quick_seasons"`
	FullTrials   int          `koanf:"full_trials"`
	Space        tuning.Space `koanf:"space"`

	// Timeout cancels a tuning task that runs longer. Zero disables it.
	Timeout time.Duration `koanf:"timeout"`
}

// ModelConfig holds the fixed parts of the rating model.
type ModelConfig struct {
	EloToPoints      float64 `koanf:"elo_to_points"`
	ScoringExtension bool    `koanf:"scoring_extension"`
}

// RosterConfig holds the strength weights. Keys are matched case-insensitively.
type RosterConfig struct {
	GroupWeights     map[string]float64 `koanf:"group_weights"`
	DepthMultipliers map[string]float64 `koanf:"depth_multipliers"`
	InjuryMultiplier float64            `koanf:"injury_multiplier"`
}

// BootstrapConfig controls what happens when no stored configuration exists.
type BootstrapConfig struct {
	Enabled bool   `koanf:"enabled"`
	Mode    string `koanf:"mode"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// New creates a Config populated with defaults.
func New() *Config {
	weights := roster.DefaultGroupWeights()
	depth := make(map[string]float64)
	for role, m := range roster.DefaultDepthMultipliers() {
		depth[string(role)] = m
	}
	return &Config{
		Addr:      ":9080",
		LogLevel:  "info",
		LogFormat: "text",
		Cache: CacheConfig{
			Backend: "file",
			Dir:     "data/cache",
		},
		Data: DataConfig{
			Timeout: 60 * time.Second,
			Retries: 3,
			Backoff: 500 * time.Millisecond,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "data/gridiron.db",
		},
		Seasons: SeasonsConfig{
			First: tuning.DefaultFirstSeason,
		},
		Tuning: TuningConfig{
			Seed:         tuning.DefaultSeed,
			Metric:       string(tuning.MetricBrier),
			QuickTrials:  tuning.DefaultQuickTrials,
			QuickSeasons: tuning.DefaultQuickSeasons,
			FullTrials:   tuning.DefaultFullTrials,
			Timeout:      30 * time.Minute,
			Space:        tuning.DefaultSpace(),
		},
		Model: ModelConfig{
			EloToPoints:      elo.DefaultEloToPoints,
			ScoringExtension: true,
		},
		Roster: RosterConfig{
			GroupWeights:     weights,
			DepthMultipliers: depth,
			InjuryMultiplier: 0.5,
		},
		Bootstrap: BootstrapConfig{
			Enabled: true,
			Mode:    string(model.ModeQuick),
		},
		MCP: MCPConfig{
			Enabled: true,
			Path:    "/mcp",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Cache.Backend != "file" && c.Cache.Backend != "redis":
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	case c.Cache.Backend == "file" && c.Cache.Dir == "":
		return fmt.Errorf("%w: cache.dir must not be empty", ErrInvalidConfig)
	case c.Cache.Backend == "redis" && c.Cache.RedisAddr == "":
		return fmt.Errorf("%w: cache.redis_addr must not be empty", ErrInvalidConfig)
	case c.Cache.TTL < 0:
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalidConfig)
	case c.Store.Driver != "sqlite" && c.Store.Driver != "postgres":
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	case c.Store.DSN == "":
		return fmt.Errorf("%w: store.dsn must not be empty", ErrInvalidConfig)
	case c.Seasons.Last != 0 && c.Seasons.Last < c.Seasons.First:
		return fmt.Errorf("%w: seasons.last before seasons.first", ErrInvalidConfig)
	case tuning.Metric(c.Tuning.Metric) != tuning.MetricBrier && tuning.Metric(c.Tuning.Metric) != tuning.MetricLogLoss:
		return fmt.Errorf("%w: unknown tuning metric %q", ErrInvalidConfig, c.Tuning.Metric)
	case c.Tuning.QuickTrials < 1 || c.Tuning.FullTrials < 1 || c.Tuning.QuickSeasons < 1:
		return fmt.Errorf("%w: tuning budgets must be positive", ErrInvalidConfig)
	case c.Tuning.Timeout < 0:
		return fmt.Errorf("%w: tuning.timeout must not be negative", ErrInvalidConfig)
	case c.Model.EloToPoints <= 0:
		return fmt.Errorf("%w: model.elo_to_points must be positive", ErrInvalidConfig)
	case c.Roster.InjuryMultiplier < 0 || c.Roster.InjuryMultiplier > 1:
		return fmt.Errorf("%w: roster.injury_multiplier must be within [0,1]", ErrInvalidConfig)
	}
	if m := model.Mode(c.Bootstrap.Mode); m != model.ModeQuick && m != model.ModeFull {
		return fmt.Errorf("%w: unknown bootstrap mode %q", ErrInvalidConfig, c.Bootstrap.Mode)
	}
	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("%w: mcp.path must start with /", ErrInvalidConfig)
	}
	if c.RetuneSchedule != "" {
		if _, err := cron.ParseStandard(c.RetuneSchedule); err != nil {
			return fmt.Errorf("%w: retune_schedule: %v", ErrInvalidConfig, err)
		}
	}
	if _, err := c.GroupWeights(); err != nil {
		return err
	}
	if _, err := c.DepthMultipliers(); err != nil {
		return err
	}
	return nil
}

// GroupWeights returns the roster group weights keyed by canonical group name.
func (c *Config) GroupWeights() (map[string]float64, error) {
	known := roster.DefaultGroupWeights()
	out := make(map[string]float64, len(c.Roster.GroupWeights))
	for key, w := range c.Roster.GroupWeights {
		name, ok := canonical(key, known)
		if !ok {
			return nil, fmt.Errorf("%w: unknown roster group %q", ErrInvalidConfig, key)
		}
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight for group %s", ErrInvalidConfig, name)
		}
		out[name] = w
	}
	return out, nil
}

// DepthMultipliers returns the depth chart multipliers keyed by role.
func (c *Config) DepthMultipliers() (map[model.Role]float64, error) {
	known := make(map[string]float64)
	for role := range roster.DefaultDepthMultipliers() {
		known[string(role)] = 0
	}
	out := make(map[model.Role]float64, len(c.Roster.DepthMultipliers))
	for key, m := range c.Roster.DepthMultipliers {
		name, ok := canonical(key, known)
		if !ok {
			return nil, fmt.Errorf("%w: unknown depth role %q", ErrInvalidConfig, key)
		}
		if m < 0 || m > 1 {
			return nil, fmt.Errorf("%w: depth multiplier for %s must be within [0,1]", ErrInvalidConfig, name)
		}
		out[model.Role(name)] = m
	}
	return out, nil
}

func canonical(key string, known map[string]float64) (string, bool) {
	for name := range known {
		if strings.EqualFold(name, strings.TrimSpace(key)) {
			return name, true
		}
	}
	return "", false
}
