package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
)

// ---
// fake DB
// ---

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs    []execCall
	queries  []execCall
	rows     *fakeRows
	rowErr   error
	rowValue []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	if f.rows == nil {
		return &fakeRows{}, nil
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return &fakeRow{err: f.rowErr, values: f.rowValue}
}

type fakeRow struct {
	err    error
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.data[r.pos-1]) }

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: want %d values, got %d", len(dest), len(values))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		case *time.Time:
			*d = v.(time.Time)
		case *[]byte:
			*d = v.([]byte)
		default:
			return fmt.Errorf("scan: unsupported dest %T", dest[i])
		}
	}
	return nil
}

func sampleReport(runID string) *analyze.Report {
	return &analyze.Report{
		Meta: analyze.Metadata{
			RunID:       runID,
			GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			InputName:   "orders.csv",
			RowCount:    10,
			ColumnCount: 4,
		},
		Scores: analyze.Scores{
			Completeness: 92.0,
			Validity:     98.0,
			Uniqueness:   100,
			Consistency:  90,
			Outliers:     100,
		},
		Global: 95.5,
		Issues: []analyze.Issue{
			{Kind: analyze.KindMissing, Column: "email", Row: 3, Message: "missing required value"},
		},
	}
}

// ---
// store
// ---

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db).EnsureSchema(context.Background()))

	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS quality_runs")
}

func TestSaveRun(t *testing.T) {
	db := &fakeDB{}
	rep := sampleReport("5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11")

	require.NoError(t, New(db).SaveRun(context.Background(), rep))

	require.Len(t, db.execs, 1)
	call := db.execs[0]
	assert.Contains(t, call.sql, "INSERT INTO quality_runs")
	require.Len(t, call.args, 13)
	assert.Equal(t, "5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11", call.args[0])
	assert.Equal(t, "orders.csv", call.args[1])
	assert.Equal(t, 92.0, call.args[4])
	assert.Equal(t, 95.5, call.args[9])
	assert.Equal(t, 1, call.args[10])
}

func TestSaveRunRejectsBadID(t *testing.T) {
	db := &fakeDB{}
	err := New(db).SaveRun(context.Background(), sampleReport("not-a-uuid"))
	require.Error(t, err)
	assert.Empty(t, db.execs)
}

func TestGetRun(t *testing.T) {
	rep := sampleReport("5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11")
	payload, err := json.Marshal(rep)
	require.NoError(t, err)

	db := &fakeDB{rowValue: []any{payload}}
	got, err := New(db).GetRun(context.Background(), rep.Meta.RunID)
	require.NoError(t, err)

	assert.Equal(t, rep.Meta.InputName, got.Meta.InputName)
	assert.Equal(t, rep.Global, got.Global)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, analyze.KindMissing, got.Issues[0].Kind)
}

func TestGetRunNotFound(t *testing.T) {
	db := &fakeDB{rowErr: pgx.ErrNoRows}
	_, err := New(db).GetRun(context.Background(), "5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRunBadIDSkipsQuery(t *testing.T) {
	db := &fakeDB{}
	_, err := New(db).GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, db.queries)
}

func TestListRuns(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: &fakeRows{data: [][]any{
		{"5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11", "orders.csv", 10, 4,
			92.0, 98.0, 100.0, 90.0, 100.0, 95.5, 1, created},
	}}}

	runs, err := New(db).ListRuns(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, db.queries, 1)
	assert.Equal(t, []any{50}, db.queries[0].args)

	require.Len(t, runs, 1)
	assert.Equal(t, "orders.csv", runs[0].InputName)
	assert.Equal(t, 95.5, runs[0].GlobalScore)
	assert.Equal(t, 92.0, runs[0].Scores.Completeness)
	assert.Equal(t, created, runs[0].CreatedAt)
}

func TestListRunsClampsLimit(t *testing.T) {
	db := &fakeDB{}
	_, err := New(db).ListRuns(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Equal(t, []any{maxListLimit}, db.queries[0].args)
}
