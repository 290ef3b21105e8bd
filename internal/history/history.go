// Package history persists quality runs to Postgres so past analyses can be
// listed and re-fetched through the HTTP API. The store is optional; the
// server runs without it when no database is configured.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
)

// ErrNotFound is returned when a run id does not exist in the store.
var ErrNotFound = errors.New("run not found")

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads and writes quality runs.
type Store struct {
	db DB
}

// New creates a store on top of an open connection pool.
func New(db DB) *Store {
	return &Store{db: db}
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID          string         `json:"id"`
	InputName   string         `json:"input_name"`
	RowCount    int            `json:"row_count"`
	ColumnCount int            `json:"column_count"`
	Scores      analyze.Scores `json:"scores"`
	GlobalScore float64        `json:"global_score"`
	IssueCount  int            `json:"issue_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS quality_runs (
    id                 UUID PRIMARY KEY,
    input_name         TEXT NOT NULL,
    row_count          INTEGER NOT NULL,
    column_count       INTEGER NOT NULL,
    score_completeness DOUBLE PRECISION NOT NULL,
    score_validity     DOUBLE PRECISION NOT NULL,
    score_uniqueness   DOUBLE PRECISION NOT NULL,
    score_consistency  DOUBLE PRECISION NOT NULL,
    score_outliers     DOUBLE PRECISION NOT NULL,
    global_score       DOUBLE PRECISION NOT NULL,
    issue_count        INTEGER NOT NULL,
    report             JSONB NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS quality_runs_created_at_idx
    ON quality_runs (created_at DESC);
`

// EnsureSchema creates the quality_runs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("ensure quality_runs schema: %w", err)
	}
	return nil
}

// SaveRun stores one completed report. The report's run id must be a UUID.
func (s *Store) SaveRun(ctx context.Context, rep *analyze.Report) error {
	id, err := uuid.Parse(rep.Meta.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", rep.Meta.RunID, err)
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO quality_runs
			(id, input_name, row_count, column_count,
			 score_completeness, score_validity, score_uniqueness,
			 score_consistency, score_outliers,
			 global_score, issue_count, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id.String(), rep.Meta.InputName, rep.Meta.RowCount, rep.Meta.ColumnCount,
		rep.Scores.Completeness, rep.Scores.Validity, rep.Scores.Uniqueness,
		rep.Scores.Consistency, rep.Scores.Outliers,
		rep.Global, len(rep.Issues), payload, rep.Meta.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}
	return nil
}

// maxListLimit bounds a single listing page.
const maxListLimit = 200

// ListRuns returns stored runs, newest first. A non-positive limit uses a
// default page size of 50.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id::text, input_name, row_count, column_count,
		       score_completeness, score_validity, score_uniqueness,
		       score_consistency, score_outliers,
		       global_score, issue_count, created_at
		FROM quality_runs
		ORDER BY created_at DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.InputName, &r.RowCount, &r.ColumnCount,
			&r.Scores.Completeness, &r.Scores.Validity, &r.Scores.Uniqueness,
			&r.Scores.Consistency, &r.Scores.Outliers,
			&r.GlobalScore, &r.IssueCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun fetches one stored report by id. Returns ErrNotFound when the id is
// unknown or not a UUID.
func (s *Store) GetRun(ctx context.Context, id string) (*analyze.Report, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var payload []byte
	err = s.db.QueryRow(ctx,
		`SELECT report FROM quality_runs WHERE id = $1`, parsed.String(),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", parsed, err)
	}

	var rep analyze.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("decode stored report %s: %w", parsed, err)
	}
	return &rep, nil
}
