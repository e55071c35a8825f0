package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/gridiron/internal/adapters/cache"
	"github.com/okian/gridiron/internal/adapters/http/api"
	"github.com/okian/gridiron/internal/adapters/http/site"
	"github.com/okian/gridiron/internal/adapters/http/swagger"
	"github.com/okian/gridiron/internal/adapters/mcptools"
	"github.com/okian/gridiron/internal/adapters/nflverse"
	"github.com/okian/gridiron/internal/adapters/repository"
	app "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/config"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/roster"
	"github.com/okian/gridiron/internal/domain/tuning"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// application is the wired process: the service, its closers and the router.
type application struct {
	svc     *app.Service
	router  *mux.Router
	closers []io.Closer
}

func main() {
	// We collect our own system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build application", logger.Error(err))
		os.Exit(1)
	}
	defer a.close(log)

	if err := a.svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := a.svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
}

// build wires every component from cfg. The service is returned unstarted.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	a := &application{}

	c, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Dir, cfg.Cache.RedisAddr, cache.WithTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if cl, ok := c.(io.Closer); ok {
		a.closers = append(a.closers, cl)
	}

	clientOpts := []nflverse.Option{
		nflverse.WithHTTPClient(&http.Client{Timeout: cfg.Data.Timeout}),
		nflverse.WithRetry(cfg.Data.Retries, cfg.Data.Backoff),
		nflverse.WithLogger(log.Named("nflverse")),
	}
	if cfg.Data.GamesURL != "" {
		clientOpts = append(clientOpts, nflverse.WithGamesURL(cfg.Data.GamesURL))
	}
	if cfg.Data.ReleaseURL != "" {
		clientOpts = append(clientOpts, nflverse.WithReleaseURL(cfg.Data.ReleaseURL))
	}
	source := nflverse.NewClient(c, clientOpts...)

	store, err := repository.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		a.close(log)
		return nil, fmt.Errorf("open store: %w", err)
	}
	// The application owns the store; Service.Stop leaves it open.
	a.closers = append(a.closers, store)

	weights, err := cfg.GroupWeights()
	if err != nil {
		a.close(log)
		return nil, err
	}
	depth, err := cfg.DepthMultipliers()
	if err != nil {
		a.close(log)
		return nil, err
	}
	engine := roster.NewEngine(
		roster.WithGroupWeights(weights),
		roster.WithDepthMultipliers(depth),
		roster.WithInjuryMultiplier(cfg.Roster.InjuryMultiplier),
		roster.WithLogger(log.Named("roster")),
	)

	tuner := tuning.New(
		tuning.WithSeed(cfg.Tuning.Seed),
		tuning.WithMetric(tuning.Metric(cfg.Tuning.Metric)),
		tuning.WithSpace(cfg.Tuning.Space),
		tuning.WithQuickBudget(cfg.Tuning.QuickTrials, cfg.Tuning.QuickSeasons),
		tuning.WithFullBudget(cfg.Tuning.FullTrials, cfg.Seasons.First),
		tuning.WithBaseParams(model.Params{
			EloToPoints: cfg.Model.EloToPoints,
			Scoring:     cfg.Model.ScoringExtension,
		}),
		tuning.WithLogger(log.Named("tuning")),
	)

	a.svc = app.New(source, store,
		app.WithEngine(engine),
		app.WithTuner(tuner),
		app.WithSeasons(cfg.Seasons.First, cfg.Seasons.Last),
		app.WithBootstrap(cfg.Bootstrap.Enabled, model.Mode(cfg.Bootstrap.Mode)),
		app.WithRetuneSchedule(cfg.RetuneSchedule),
		app.WithTuningTimeout(cfg.Tuning.Timeout),
		app.WithLogger(log.Named("service")),
	)

	a.router = newRouter(ctx, cfg, a.svc, log)
	return a, nil
}

// newRouter registers the API, docs, MCP endpoint and front-end. The
// front-end claims every remaining path so it goes last.
func newRouter(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) *mux.Router {
	r := mux.NewRouter()

	api.NewServer(svc, svc, log.Named("api")).Register(ctx, r)
	swagger.Register(ctx, r)

	if cfg.MCP.Enabled {
		r.PathPrefix(cfg.MCP.Path).Handler(mcptools.Handler(mcptools.NewServer(svc, log.Named("mcp"))))
	}

	site.Register(ctx, r)
	return r
}

func (a *application) close(log logger.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn(context.Background(), "close failed", logger.Error(err))
		}
	}
	a.closers = nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics copies service gauges into the registry.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queue_length"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if loaded, ok := stats["model_loaded"].(bool); ok {
		metrics.UpdateRatingsLoaded(loaded, len(svc.Teams()))
	}
}
