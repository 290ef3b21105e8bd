package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/history"
	"github.com/carlhabs/data-quality-analyzer/internal/logging"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

// errNoHistory answers the run endpoints when no database is configured.
var errNoHistory = errors.New("run history is not configured")

// analyzeResponse wraps the report so non-fatal warnings can ride along.
type analyzeResponse struct {
	Report   *analyze.Report `json:"report"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze runs a full analysis on an uploaded CSV. The multipart form
// takes a required "dataset" file, an optional "rules" YAML file, and the
// optional fields "delimiter", "encoding" and "id_cols".
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		respondError(w, r, fmt.Errorf("parse upload: %w", err), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("dataset")
	if err != nil {
		respondError(w, r, errors.New("missing dataset file"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	opts := dataset.CSVOptions{Delimiter: ',', Encoding: "utf-8"}
	if v := r.FormValue("delimiter"); v != "" {
		if utf8.RuneCountInString(v) != 1 {
			respondError(w, r, fmt.Errorf("delimiter %q must be a single character", v), http.StatusBadRequest)
			return
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(v)
	}
	if v := r.FormValue("encoding"); v != "" {
		opts.Encoding = v
	}

	ds, err := dataset.ReadCSV(file, opts)
	if err != nil {
		respondError(w, r, fmt.Errorf("read dataset: %w", err), http.StatusBadRequest)
		return
	}

	idCols := splitIDCols(r.FormValue("id_cols"))

	ruleFile := &rules.File{}
	if rf, _, err := r.FormFile("rules"); err == nil {
		defer rf.Close()
		ruleFile, err = rules.Load(rf)
		if err != nil {
			respondError(w, r, fmt.Errorf("load rules: %w", err), http.StatusBadRequest)
			return
		}
	}

	cfg, absent, err := rules.Compile(ruleFile, ds.Header(), idCols)
	if err != nil {
		respondError(w, r, fmt.Errorf("compile rules: %w", err), http.StatusBadRequest)
		return
	}
	var warnings []string
	for _, column := range absent {
		warnings = append(warnings, fmt.Sprintf("rules reference column %q which is not in the dataset; skipped", column))
	}

	rep := analyze.New(cfg).Run(ds, analyze.Metadata{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		InputName:   fileHeader.Filename,
		IDColumns:   idCols,
	})

	if s.store != nil {
		if err := s.store.SaveRun(r.Context(), rep); err != nil {
			logging.WithFields(r.Context(), "run_id", rep.Meta.RunID).
				Warn("save run failed", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, analyzeResponse{Report: rep, Warnings: warnings})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errNoHistory, http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errNoHistory, http.StatusServiceUnavailable)
		return
	}

	rep, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func splitIDCols(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
