package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// queryInt reads a non-negative integer query parameter. Missing values
// return def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, name)
	}
	return n, nil
}

// queryBool reads a boolean query parameter. Missing values are false.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrBadRequest, name)
	}
	return b, nil
}

// seasonWeek reads the required season and week parameters.
func seasonWeek(r *http.Request) (season, week int, err error) {
	if season, err = queryInt(r, "season", 0); err != nil {
		return 0, 0, err
	}
	if week, err = queryInt(r, "week", 0); err != nil {
		return 0, 0, err
	}
	if season == 0 || week == 0 {
		return 0, 0, fmt.Errorf("%w: season and week are required", ErrBadRequest)
	}
	return season, week, nil
}
