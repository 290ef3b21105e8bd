package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
	"github.com/carlhabs/data-quality-analyzer/internal/history"
)

// ---
// helpers
// ---

type filePart struct {
	field, name, body string
}

func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.body)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postAnalyze(t *testing.T, srv *Server, files []filePart, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

const sampleCSV = "id,amount\n1,10.5\n1,11.0\n2,ten\n"

const sampleRules = `
columns:
  amount:
    type: float
    min: 0
unique_keys:
  - id
`

// ---
// endpoints
// ---

func TestHealthz(t *testing.T) {
	srv := NewServer(Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAnalyze(t *testing.T) {
	srv := NewServer(Config{})
	rec := postAnalyze(t, srv,
		[]filePart{
			{field: "dataset", name: "orders.csv", body: sampleCSV},
			{field: "rules", name: "rules.yaml", body: sampleRules},
		},
		map[string]string{"id_cols": "id"},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)

	assert.Equal(t, "orders.csv", resp.Report.Meta.InputName)
	assert.NotEmpty(t, resp.Report.Meta.RunID)
	assert.Equal(t, 3, resp.Report.Meta.RowCount)
	assert.Less(t, resp.Report.Global, 100.0)

	kinds := make(map[analyze.Kind]bool)
	for _, issue := range resp.Report.Issues {
		kinds[issue.Kind] = true
	}
	assert.True(t, kinds[analyze.KindTypeMismatch], "expected a type mismatch for \"ten\"")
	assert.True(t, kinds[analyze.KindDuplicate], "expected a duplicate id")
}

func TestAnalyzeAbsentRuleColumnWarns(t *testing.T) {
	srv := NewServer(Config{})
	rec := postAnalyze(t, srv,
		[]filePart{
			{field: "dataset", name: "orders.csv", body: sampleCSV},
			{field: "rules", name: "rules.yaml", body: "columns:\n  height:\n    type: float\n"},
		}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "height")
}

func TestAnalyzeMissingDataset(t *testing.T) {
	srv := NewServer(Config{})
	rec := postAnalyze(t, srv, nil, map[string]string{"delimiter": ","})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing dataset file")
}

func TestAnalyzeBadDelimiter(t *testing.T) {
	srv := NewServer(Config{})
	rec := postAnalyze(t, srv,
		[]filePart{{field: "dataset", name: "a.csv", body: sampleCSV}},
		map[string]string{"delimiter": "ab"},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRaggedCSV(t *testing.T) {
	srv := NewServer(Config{})
	rec := postAnalyze(t, srv,
		[]filePart{{field: "dataset", name: "a.csv", body: "a,b\n1\n"}},
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeBadRules(t *testing.T) {
	srv := NewServer(Config{})
	rec := postAnalyze(t, srv,
		[]filePart{
			{field: "dataset", name: "a.csv", body: sampleCSV},
			{field: "rules", name: "rules.yaml", body: "columns:\n  amount:\n    type: floaty\n"},
		}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunsWithoutStore(t *testing.T) {
	srv := NewServer(Config{})

	for _, path := range []string{"/api/runs", "/api/runs/5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv := NewServer(Config{Store: history.New(&stubDB{rowErr: pgx.ErrNoRows})})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/5f0c1b9e-4a86-4c2f-9a3a-0d3d6a2f9b11", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv := NewServer(Config{RequestsPerMinute: 2})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

// stubDB satisfies history.DB for handler tests.
type stubDB struct {
	rowErr error
}

func (s *stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, s.rowErr
}

func (s *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return stubRow{err: s.rowErr}
}

type stubRow struct{ err error }

func (r stubRow) Scan(...any) error { return r.err }
