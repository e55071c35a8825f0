package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/gridiron/internal/adapters/nflverse"
	"github.com/okian/gridiron/internal/adapters/repository"
	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/domain/elo"
	"github.com/okian/gridiron/internal/domain/team"
	"github.com/okian/gridiron/internal/domain/tuning"
)

// Kind classifies an API error and picks its status code.
type Kind string

// Error kinds. The kind string is the "code" field of error bodies.
const (
	KindBadRequest       Kind = "bad_request"
	KindInvalidTeam      Kind = "invalid_team"
	KindSameTeam         Kind = "same_team"
	KindInvalidMode      Kind = "invalid_mode"
	KindNotFound         Kind = "not_found"
	KindTuningInProgress Kind = "tuning_in_progress"
	KindUninitialized    Kind = "model_uninitialized"
	KindUnavailable      Kind = "data_unavailable"
	KindTimeout          Kind = "timeout"
	KindInternal         Kind = "internal"
)

// Status returns the HTTP status for k.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest, KindInvalidTeam, KindSameTeam, KindInvalidMode:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTuningInProgress:
		return http.StatusConflict
	case KindUninitialized, KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error carries the failing operation and its kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrBadRequest marks malformed input.
var ErrBadRequest = errors.New("bad request")

// NewKind creates an error of kind for op.
func NewKind(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Err: errors.New(msg)}
}

// WrapKind wraps err with an explicit kind.
func WrapKind(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap wraps err and derives its kind from the sentinel it carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, team.ErrInvalidTeam):
		return KindInvalidTeam
	case errors.Is(err, elo.ErrSameTeam):
		return KindSameTeam
	case errors.Is(err, tuning.ErrInvalidMode):
		return KindInvalidMode
	case errors.Is(err, ErrBadRequest), errors.Is(err, tuning.ErrInvalidRange), errors.Is(err, service.ErrInvalidCacheKey):
		return KindBadRequest
	case errors.Is(err, service.ErrTaskNotFound), errors.Is(err, repository.ErrNotFound):
		return KindNotFound
	case errors.Is(err, service.ErrTuningInProgress):
		return KindTuningInProgress
	case errors.Is(err, elo.ErrUninitializedModel), errors.Is(err, service.ErrNotStarted):
		return KindUninitialized
	case errors.Is(err, nflverse.ErrDataUnavailable), errors.Is(err, nflverse.ErrMissingColumns):
		return KindUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindInternal
	}
}

// writeErr renders err as an error body with the status of its kind.
func writeErr(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Kind: classify(err), Err: err}
	}
	status := apiErr.Kind.Status()
	if status == http.StatusInternalServerError {
		writeError(w, status, string(apiErr.Kind), errors.New(http.StatusText(status)))
		return
	}
	writeError(w, status, string(apiErr.Kind), apiErr.Err)
}
