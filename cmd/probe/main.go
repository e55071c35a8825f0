package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gridiron/internal/probe"
	"github.com/okian/gridiron/pkg/logger"
)

const (
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultRunBudget = 30 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", probe.DefaultBaseURL, "Base URL of the service")
		matchups = flag.Int("matchups", probe.DefaultMatchups, "Number of predictions to fire")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		seed     = flag.Int64("seed", probe.DefaultSeed, "Matchup generator seed")
		retune   = flag.Bool("retune", false, "Trigger a retune and wait for it before predicting")
		mode     = flag.String("mode", "quick", "Retune mode: quick or full")
		season   = flag.Int("season", 0, "Season for roster context (optional)")
		week     = flag.Int("week", 0, "Week for roster context (optional)")
		format   = flag.String("log-format", "text", "Log format: text or json")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunBudget)
	defer cancel()

	_, err := probe.Run(ctx, &probe.Config{
		BaseURL:  *baseURL,
		Matchups: *matchups,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seed,
		Retune:   *retune,
		Mode:     *mode,
		Season:   *season,
		Week:     *week,
		Verbose:  *verbose,
		Logger:   logger.Get(),
	})
	if err != nil {
		logger.Get().Error(ctx, "probe failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
