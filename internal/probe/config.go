// Package probe is a concurrent smoke test client for a running gridiron
// service.
package probe

import (
	"errors"
	"time"

	"github.com/okian/gridiron/pkg/logger"
)

// Errors reported by Run.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrBadResponse  = errors.New("unexpected response")
	ErrTaskFailed   = errors.New("tuning task failed")
	ErrVerification = errors.New("prediction verification failed")
)

// Defaults.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultMatchups     = 200
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultSeed         = 1
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL      string        // service base URL
	Matchups     int           // predictions to fire
	Workers      int           // concurrent prediction workers
	Timeout      time.Duration // per request timeout
	Seed         int64         // matchup generator seed
	Retune       bool          // trigger a retune and wait for it first
	Mode         string        // retune mode
	PollInterval time.Duration // task poll interval
	Season       int           // optional season for roster context
	Week         int           // optional week for roster context
	Verbose      bool
	Logger       logger.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Matchups <= 0 {
		out.Matchups = DefaultMatchups
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Mode == "" {
		out.Mode = "quick"
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.Logger == nil {
		out.Logger = logger.Nop()
	}
	if out.Seed == 0 {
		out.Seed = DefaultSeed
	}
	return out
}

// Matchup is one home/away pairing.
type Matchup struct {
	Home   string `json:"home"`
	Away   string `json:"away"`
	Season int    `json:"season,omitempty"`
	Week   int    `json:"week,omitempty"`
}

// Prediction mirrors the predict response fields the probe checks.
type Prediction struct {
	Home        string  `json:"home"`
	Away        string  `json:"away"`
	HomeWinProb float64 `json:"home_win_prob"`
	Spread      float64 `json:"spread"`
}

// Task mirrors the task status response.
type Task struct {
	ID     string `json:"task_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Stats holds probe statistics.
type Stats struct {
	Teams       int
	TaskID      string
	Submitted   int
	Successful  int
	Failed      int
	Violations  int
	Favorites   int // home side favored
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Predictions []Prediction
}
