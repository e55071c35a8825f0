package api

import (
	"net/http"
	"strings"

	"github.com/okian/gridiron/internal/domain/model"
)

// CacheHandler drops cached source tables on request.
type CacheHandler struct {
	deps Dependencies
}

func NewCacheHandler(deps Dependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleInvalidate handles DELETE /cache?kind=&season=&week=&team=.
func (h *CacheHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	const op = "cache_invalidate"

	q := r.URL.Query()
	kind := model.TableKind(strings.ToLower(strings.TrimSpace(q.Get("kind"))))
	if kind == "" {
		writeErr(w, NewKind(op, KindBadRequest, "kind is required"))
		return
	}
	season, err := queryInt(r, "season", 0)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	n, err := h.deps.InvalidateCache(r.Context(), kind, season, week, strings.TrimSpace(q.Get("team")))
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "kind": kind, "entries": n})
}
