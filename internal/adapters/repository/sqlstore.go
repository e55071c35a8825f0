package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers "sqlite"
	_ "github.com/lib/pq"             // registers "postgres"

	"github.com/okian/gridiron/internal/domain/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS configurations (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		params TEXT NOT NULL,
		first_season INTEGER NOT NULL,
		last_season INTEGER NOT NULL,
		trials INTEGER NOT NULL,
		metric TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		margin_std_dev DOUBLE PRECISION NOT NULL,
		games INTEGER NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS configurations_created_at ON configurations (created_at)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		config_id TEXT NOT NULL,
		team TEXT NOT NULL,
		rating DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (config_id, team)
	)`,
}

const configColumns = `id, mode, params, first_season, last_season, trials, metric, score, margin_std_dev, games, created_at`

// SQLStore implements Store on database/sql for SQLite and Postgres.
type SQLStore struct {
	db           *sql.DB
	driver       string
	maxOpenConns int
}

// Open connects to dsn with driver and migrates the schema.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	s := &SQLStore{driver: driver}
	if driver == DriverSQLite {
		s.maxOpenConns = 1
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if s.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.maxOpenConns)
	}
	s.db = db
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveConfiguration stores cfg and ratings in one transaction.
func (s *SQLStore) SaveConfiguration(ctx context.Context, cfg model.TunedConfiguration, ratings map[string]float64) (err error) {
	params, err := json.Marshal(cfg.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO configurations (`+configColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		cfg.ID, string(cfg.Mode), string(params), cfg.FirstSeason, cfg.LastSeason, cfg.Trials,
		cfg.Metric, cfg.Score, cfg.MarginStdDev, cfg.Games, cfg.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert configuration: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO ratings (config_id, team, rating) VALUES (?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare ratings: %w", err)
	}
	defer stmt.Close()
	for team, r := range ratings {
		if _, err = stmt.ExecContext(ctx, cfg.ID, team, r); err != nil {
			return fmt.Errorf("insert rating %s: %w", team, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LatestConfiguration returns the newest configuration.
func (s *SQLStore) LatestConfiguration(ctx context.Context) (model.TunedConfiguration, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+configColumns+` FROM configurations ORDER BY created_at DESC LIMIT 1`)
	return scanConfiguration(row)
}

// Configuration returns the configuration with id.
func (s *SQLStore) Configuration(ctx context.Context, id string) (model.TunedConfiguration, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+configColumns+` FROM configurations WHERE id = ?`), id)
	return scanConfiguration(row)
}

// Ratings returns the ratings stored under configuration id.
func (s *SQLStore) Ratings(ctx context.Context, id string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT team, rating FROM ratings WHERE config_id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var team string
		var r float64
		if err := rows.Scan(&team, &r); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[team] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: ratings for %s", ErrNotFound, id)
	}
	return out, nil
}

// Configurations lists up to limit configurations, newest first.
func (s *SQLStore) Configurations(ctx context.Context, limit int) ([]model.TunedConfiguration, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+configColumns+` FROM configurations ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}
	defer rows.Close()

	var out []model.TunedConfiguration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate configurations: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(sc scanner) (model.TunedConfiguration, error) {
	var (
		cfg       model.TunedConfiguration
		mode      string
		params    string
		createdAt int64
	)
	err := sc.Scan(&cfg.ID, &mode, &params, &cfg.FirstSeason, &cfg.LastSeason, &cfg.Trials,
		&cfg.Metric, &cfg.Score, &cfg.MarginStdDev, &cfg.Games, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, ErrNotFound
	}
	if err != nil {
		return cfg, fmt.Errorf("scan configuration: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &cfg.Params); err != nil {
		return cfg, fmt.Errorf("decode params: %w", err)
	}
	cfg.Mode = model.Mode(mode)
	cfg.CreatedAt = time.UnixMilli(createdAt).UTC()
	return cfg, nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
