package api

import (
	"net/http"
)

// StatsProvider reports a snapshot of the service: installed configuration,
// task counts and runtime figures.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the provider's map. Without a provider the endpoint
// reports data_unavailable.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	if h.provider == nil {
		writeErr(w, NewKind("stats", KindUnavailable, "no stats provider"))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
