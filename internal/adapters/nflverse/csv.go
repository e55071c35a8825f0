package nflverse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
)

// header maps column names to indexes, case-insensitively.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		h[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))] = i
	}
	return h
}

// col returns the index of the first present name, or -1.
func (h header) col(names ...string) int {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i
		}
	}
	return -1
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// value returns the first non-empty value among the named columns.
func (h header) value(rec []string, names ...string) string {
	for _, n := range names {
		if i, ok := h[n]; ok {
			if v := field(rec, i); v != "" {
				return v
			}
		}
	}
	return ""
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func intField(rec []string, i int) (int, error) {
	return strconv.Atoi(field(rec, i))
}

// pctField parses a share. Values above 1 are percentages and are rescaled.
func pctField(rec []string, i int) (float64, error) {
	s := field(rec, i)
	if s == "" || strings.EqualFold(s, "na") {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v > 1 {
		v /= 100
	}
	return v, nil
}

// eachRecord reads a CSV blob, calling fn for every record after the header.
func eachRecord(blob []byte, fn func(h header, rec []string) error) error {
	r := csv.NewReader(bytes.NewReader(blob))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	cols, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	h := newHeader(cols)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if err := fn(h, rec); err != nil {
			return err
		}
	}
}

// filterCSV keeps the header and the records keep accepts.
func filterCSV(blob []byte, keep func(h header, rec []string) bool) ([]byte, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	r := csv.NewReader(bytes.NewReader(blob))
	r.FieldsPerRecord = -1
	cols, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if err := w.Write(cols); err != nil {
		return nil, 0, err
	}
	kept := 0
	h := newHeader(cols)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}
		if keep(h, rec) {
			if err := w.Write(rec); err != nil {
				return nil, 0, err
			}
			kept++
		}
	}
	w.Flush()
	return buf.Bytes(), kept, w.Error()
}

// Parsed is a table with the number of rows that failed validation.
type Parsed[T any] struct {
	Rows      []T
	Malformed int
}

// ParseGames reads completed regular-season games. Unplayed games are
// dropped; rows that fail validation are counted as malformed.
func ParseGames(blob []byte) (Parsed[model.Game], error) {
	var out Parsed[model.Game]
	err := eachRecord(blob, func(h header, rec []string) error {
		if err := h.require("season", "week", "home_team", "away_team", "home_score", "away_score"); err != nil {
			return err
		}
		if gt := h.value(rec, "game_type", "season_type"); gt != "" && gt != "REG" {
			return nil
		}
		hs, as := field(rec, h.col("home_score")), field(rec, h.col("away_score"))
		if hs == "" || as == "" || strings.EqualFold(hs, "na") || strings.EqualFold(as, "na") {
			return nil
		}
		g, err := parseGame(h, rec)
		if err != nil {
			out.Malformed++
			return nil
		}
		out.Rows = append(out.Rows, g)
		return nil
	})
	return out, err
}

func parseGame(h header, rec []string) (model.Game, error) {
	var g model.Game
	var err error
	if g.Season, err = intField(rec, h.col("season")); err != nil {
		return g, fmt.Errorf("%w: season: %w", model.ErrMalformedRow, err)
	}
	if g.Week, err = intField(rec, h.col("week")); err != nil {
		return g, fmt.Errorf("%w: week: %w", model.ErrMalformedRow, err)
	}
	if g.Home, err = team.Parse(field(rec, h.col("home_team"))); err != nil {
		return g, fmt.Errorf("%w: %w", model.ErrMalformedRow, err)
	}
	if g.Away, err = team.Parse(field(rec, h.col("away_team"))); err != nil {
		return g, fmt.Errorf("%w: %w", model.ErrMalformedRow, err)
	}
	if g.HomePoints, err = intField(rec, h.col("home_score")); err != nil {
		return g, fmt.Errorf("%w: home_score: %w", model.ErrMalformedRow, err)
	}
	if g.AwayPoints, err = intField(rec, h.col("away_score")); err != nil {
		return g, fmt.Errorf("%w: away_score: %w", model.ErrMalformedRow, err)
	}
	return g, nil
}

// ParseRoster reads a weekly roster table.
func ParseRoster(blob []byte) (Parsed[model.RosterEntry], error) {
	var out Parsed[model.RosterEntry]
	err := eachRecord(blob, func(h header, rec []string) error {
		if err := h.require("season", "week", "team", "position"); err != nil {
			return err
		}
		season, err1 := intField(rec, h.col("season"))
		week, err2 := intField(rec, h.col("week"))
		name := h.value(rec, "full_name", "player_name", "player", "name")
		id := h.value(rec, "gsis_id", "player_id")
		if err1 != nil || err2 != nil || (name == "" && id == "") {
			out.Malformed++
			return nil
		}
		out.Rows = append(out.Rows, model.RosterEntry{
			Season:   season,
			Week:     week,
			Team:     field(rec, h.col("team")),
			PlayerID: id,
			PFRID:    h.value(rec, "pfr_id", "pfr_player_id"),
			Name:     name,
			Position: strings.ToUpper(h.value(rec, "depth_chart_position", "position")),
			Depth:    h.value(rec, "depth_team", "depth", "role"),
			Status:   field(rec, h.col("status")),
		})
		return nil
	})
	return out, err
}

// ParseInjuries reads a weekly injury report table.
func ParseInjuries(blob []byte) (Parsed[model.InjuryEntry], error) {
	var out Parsed[model.InjuryEntry]
	err := eachRecord(blob, func(h header, rec []string) error {
		if err := h.require("season", "week", "team"); err != nil {
			return err
		}
		season, err1 := intField(rec, h.col("season"))
		week, err2 := intField(rec, h.col("week"))
		name := h.value(rec, "full_name", "player", "name")
		id := h.value(rec, "gsis_id", "player_id")
		if err1 != nil || err2 != nil || (name == "" && id == "") {
			out.Malformed++
			return nil
		}
		out.Rows = append(out.Rows, model.InjuryEntry{
			Season:   season,
			Week:     week,
			Team:     field(rec, h.col("team")),
			PlayerID: id,
			Name:     name,
			Status:   h.value(rec, "report_status", "status"),
		})
		return nil
	})
	return out, err
}

// ParseSnaps reads a snap count table.
func ParseSnaps(blob []byte) (Parsed[model.SnapEntry], error) {
	var out Parsed[model.SnapEntry]
	err := eachRecord(blob, func(h header, rec []string) error {
		if err := h.require("season", "week", "team"); err != nil {
			return err
		}
		season, err1 := intField(rec, h.col("season"))
		week, err2 := intField(rec, h.col("week"))
		off, err3 := pctField(rec, h.col("offense_pct"))
		def, err4 := pctField(rec, h.col("defense_pct"))
		st, err5 := pctField(rec, h.col("st_pct", "special_teams_pct"))
		name := h.value(rec, "player", "full_name", "name")
		id := h.value(rec, "pfr_player_id", "pfr_id")
		if err := errors.Join(err1, err2, err3, err4, err5); err != nil || (name == "" && id == "") {
			out.Malformed++
			return nil
		}
		out.Rows = append(out.Rows, model.SnapEntry{
			Season:     season,
			Week:       week,
			Team:       field(rec, h.col("team")),
			PFRID:      id,
			Name:       name,
			OffensePct: off,
			DefensePct: def,
			SpecialPct: st,
		})
		return nil
	})
	return out, err
}
