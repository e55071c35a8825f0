package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// StrengthHandler serves roster strength for one team or the whole league.
type StrengthHandler struct {
	deps Dependencies
}

// NewStrengthHandler creates a new strength handler.
func NewStrengthHandler(deps Dependencies) *StrengthHandler {
	return &StrengthHandler{deps: deps}
}

// HandleTeam handles GET /strength/{team}?season=&week=&refresh=.
func (h *StrengthHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	const op = "strength_team"

	season, week, err := seasonWeek(r)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	res, err := h.deps.Strength(r.Context(), mux.Vars(r)["team"], season, week, refresh)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLeague handles GET /strength?season=&week=&refresh=.
func (h *StrengthHandler) HandleLeague(w http.ResponseWriter, r *http.Request) {
	const op = "strength_league"

	season, week, err := seasonWeek(r)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	league, err := h.deps.LeagueStrength(r.Context(), season, week, refresh)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, league)
}
