package api

import (
	"net/http"
)

const defaultHistoryLimit = 20

// ModelHandler serves the installed model: teams, rankings and configuration.
type ModelHandler struct {
	deps Dependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps Dependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleTeams handles GET /teams.
func (h *ModelHandler) HandleTeams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"teams": h.deps.Teams()})
}

// HandleRankings handles GET /rankings.
func (h *ModelHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.deps.Rankings(r.Context())
	if err != nil {
		writeErr(w, Wrap("rankings", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": ranked})
}

// HandleConfig handles GET /config.
func (h *ModelHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.deps.CurrentConfiguration(r.Context())
	if err != nil {
		writeErr(w, Wrap("config", err))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleHistory handles GET /config/history?limit=.
func (h *ModelHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "config_history"
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	configs, err := h.deps.History(r.Context(), limit)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configurations": configs})
}
