package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ritzau/orgchart/pkg/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS filter_sets (
	id         TEXT PRIMARY KEY,
	chart_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	filters    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS filter_sets_chart_created_idx ON filter_sets (chart_id, created_at DESC);
`

const (
	listSQL = `
SELECT id, chart_id, name, created_at, filters
FROM filter_sets
WHERE chart_id = $1
  AND ($2 = '' OR position(lower($2) IN lower(name)) > 0)
  AND ($3::timestamptz IS NULL OR (created_at >= $3 AND created_at < $4))
ORDER BY created_at DESC`

	getSQL = `SELECT id, chart_id, name, created_at, filters FROM filter_sets WHERE id = $1`

	insertSQL = `
INSERT INTO filter_sets (id, chart_id, name, filters)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

	updateSQL = `
UPDATE filter_sets SET name = $3, filters = $4
WHERE id = $1 AND chart_id = $2
RETURNING created_at`

	deleteSQL = `DELETE FROM filter_sets WHERE id = $1`
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps filter sets in a Postgres table, filters as JSONB.
type PostgresStore struct {
	db   dbConn
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the schema if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating filter set schema: %w", err)
	}

	log.Info("filter set store ready", "backend", "postgres")
	return &PostgresStore{db: pool, pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context, chartID string, opts ListOptions) ([]model.FilterSet, error) {
	var from, to *time.Time
	if !opts.CreatedOn.IsZero() {
		y, m, d := opts.CreatedOn.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, opts.CreatedOn.Location())
		end := start.AddDate(0, 0, 1)
		from, to = &start, &end
	}

	rows, err := s.db.Query(ctx, listSQL, chartID, strings.TrimSpace(opts.Search), from, to)
	if err != nil {
		return nil, fmt.Errorf("listing filter sets: %w", err)
	}
	defer rows.Close()

	sets := make([]model.FilterSet, 0)
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing filter sets: %w", err)
	}
	return sets, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.FilterSet, error) {
	set, err := scanSet(s.db.QueryRow(ctx, getSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.FilterSet{}, ErrNotFound
	}
	return set, err
}

func (s *PostgresStore) Save(ctx context.Context, set *model.FilterSet) error {
	query := updateSQL
	if set.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generating filter set id: %w", err)
		}
		set.ID = id
		query = insertSQL
	}

	err := s.db.QueryRow(ctx, query, set.ID, set.ChartID, set.Name, set.Filters).Scan(&set.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("saving filter set %s: %w", set.ID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("deleting filter set %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func scanSet(row pgx.Row) (model.FilterSet, error) {
	var set model.FilterSet
	err := row.Scan(&set.ID, &set.ChartID, &set.Name, &set.CreatedAt, &set.Filters)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return set, err
		}
		return set, fmt.Errorf("scanning filter set: %w", err)
	}
	return set, nil
}
