package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/pkg/logger"
)

const maxPredictBody = 1 << 16

// PredictRequest is the body of POST /predict. Season and week are optional;
// when both are set the response carries roster strength.
type PredictRequest struct {
	Home    string `json:"home"`
	Away    string `json:"away"`
	Season  int    `json:"season,omitempty"`
	Week    int    `json:"week,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`
}

// PredictHandler handles matchup predictions.
type PredictHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies, log logger.Logger) *PredictHandler {
	return &PredictHandler{deps: deps, logger: log}
}

// HandlePredict handles POST /predict.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "predict"

	var req PredictRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPredictBody))
	if err := dec.Decode(&req); err != nil {
		writeErr(w, WrapKind(op, KindBadRequest, fmt.Errorf("invalid JSON body: %w", err)))
		return
	}
	if req.Home == "" || req.Away == "" {
		writeErr(w, NewKind(op, KindBadRequest, "home and away are required"))
		return
	}
	if req.Season < 0 || req.Week < 0 {
		writeErr(w, NewKind(op, KindBadRequest, "season and week must be non-negative"))
		return
	}

	pred, err := h.deps.PredictWithContext(r.Context(), service.PredictRequest{
		Home:    req.Home,
		Away:    req.Away,
		Season:  req.Season,
		Week:    req.Week,
		Refresh: req.Refresh,
	})
	if err != nil {
		apiErr := Wrap(op, err)
		var e *Error
		if errors.As(apiErr, &e) && e.Kind == KindInternal {
			h.logger.Error(r.Context(), "prediction failed", logger.Error(err))
		}
		writeErr(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}
