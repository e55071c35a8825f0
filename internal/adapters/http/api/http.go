// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/roster"
	"github.com/okian/gridiron/internal/domain/types"
	"github.com/okian/gridiron/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Teams() []string
	PredictWithContext(ctx context.Context, req service.PredictRequest) (service.Prediction, error)

	// Submit queues a tuning job. Fails with ErrTuningInProgress while one is pending or running.
	Submit(ctx context.Context, job model.TuneJob) (model.Task, error)
	Task(ctx context.Context, id string) (model.Task, error)
	Tasks(ctx context.Context) []model.Task

	CurrentConfiguration(ctx context.Context) (model.TunedConfiguration, error)
	History(ctx context.Context, limit int) ([]model.TunedConfiguration, error)
	Rankings(ctx context.Context) ([]types.Entry, error)

	Strength(ctx context.Context, code string, season, week int, refresh bool) (roster.Result, error)
	LeagueStrength(ctx context.Context, season, week int, refresh bool) (service.LeagueStrength, error)

	// InvalidateCache drops cached tables and reports how many keys it dropped.
	InvalidateCache(ctx context.Context, kind model.TableKind, season, week int, code string) (int, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	predictHandler  *PredictHandler
	retuneHandler   *RetuneHandler
	modelHandler    *ModelHandler
	strengthHandler *StrengthHandler
	cacheHandler    *CacheHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		predictHandler:  NewPredictHandler(deps, log),
		retuneHandler:   NewRetuneHandler(deps, log),
		modelHandler:    NewModelHandler(deps),
		strengthHandler: NewStrengthHandler(deps),
		cacheHandler:    NewCacheHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	get, post := http.MethodGet, http.MethodPost

	r.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health")).Methods(get)
	r.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics")).Methods(get)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(get)

	r.HandleFunc("/teams", MetricsMiddleware(s.modelHandler.HandleTeams, "teams")).Methods(get)
	r.HandleFunc("/rankings", MetricsMiddleware(s.modelHandler.HandleRankings, "rankings")).Methods(get)
	r.HandleFunc("/config", MetricsMiddleware(s.modelHandler.HandleConfig, "config")).Methods(get)
	r.HandleFunc("/config/history", MetricsMiddleware(s.modelHandler.HandleHistory, "config_history")).Methods(get)

	r.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict")).Methods(post)

	r.HandleFunc("/retune", MetricsMiddleware(s.retuneHandler.HandleRetune, "retune")).Methods(post)
	r.HandleFunc("/retune", MetricsMiddleware(s.retuneHandler.HandleTasks, "retune_tasks")).Methods(get)
	r.HandleFunc("/retune/{id}", MetricsMiddleware(s.retuneHandler.HandleTask, "retune_task")).Methods(get)

	r.HandleFunc("/strength", MetricsMiddleware(s.strengthHandler.HandleLeague, "strength_league")).Methods(get)
	r.HandleFunc("/strength/{team}", MetricsMiddleware(s.strengthHandler.HandleTeam, "strength_team")).Methods(get)

	r.HandleFunc("/cache", MetricsMiddleware(s.cacheHandler.HandleInvalidate, "cache_invalidate")).Methods(http.MethodDelete)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
