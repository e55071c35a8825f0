package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
)

// RetuneResponse acknowledges a queued tuning task.
type RetuneResponse struct {
	Status string     `json:"status"`
	TaskID string     `json:"task_id"`
	Mode   model.Mode `json:"mode"`
}

// RetuneHandler starts tuning tasks and reports their status.
type RetuneHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRetuneHandler creates a new retune handler.
func NewRetuneHandler(deps Dependencies, log logger.Logger) *RetuneHandler {
	return &RetuneHandler{deps: deps, logger: log}
}

// HandleRetune handles POST /retune. The tuning result is not awaited; the
// caller polls GET /retune/{id}.
func (h *RetuneHandler) HandleRetune(w http.ResponseWriter, r *http.Request) {
	const op = "retune"

	job, err := parseJob(r)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	task, err := h.deps.Submit(r.Context(), job)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, RetuneResponse{
		Status: "retune_started",
		TaskID: task.ID,
		Mode:   task.Mode,
	})
}

// HandleTasks handles GET /retune.
func (h *RetuneHandler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": h.deps.Tasks(r.Context())})
}

// HandleTask handles GET /retune/{id}.
func (h *RetuneHandler) HandleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.deps.Task(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, Wrap("retune_task", err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func parseJob(r *http.Request) (model.TuneJob, error) {
	job := model.TuneJob{Mode: model.ParseMode(r.URL.Query().Get("mode"))}
	var err error
	if job.FirstSeason, err = queryInt(r, "first_season", 0); err != nil {
		return job, err
	}
	if job.LastSeason, err = queryInt(r, "last_season", 0); err != nil {
		return job, err
	}
	if job.Trials, err = queryInt(r, "trials", 0); err != nil {
		return job, err
	}
	if job.Refresh, err = queryBool(r, "refresh"); err != nil {
		return job, err
	}
	return job, nil
}
