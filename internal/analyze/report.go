package analyze

// report.go defines the quality report handed to the rendering and export
// collaborators.

import (
	"time"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

// Metadata describes one analysis run. It is supplied by the caller so the
// analyzer itself stays a pure function of dataset and config.
type Metadata struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	InputName   string    `json:"input_name,omitempty"`
	RulesPath   string    `json:"rules_path,omitempty"`
	IDColumns   []string  `json:"id_columns,omitempty"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
}

// ColumnSummary carries the per-column tallies shown in summary exports.
type ColumnSummary struct {
	Column       string  `json:"column"`
	InferredType string  `json:"inferred_type"`
	MissingCount int     `json:"missing_count"`
	MissingPct   float64 `json:"missing_pct"`
	InvalidCount int     `json:"invalid_count"`
	OutlierCount int     `json:"outlier_count"`
}

// Report is the full result of one quality run.
type Report struct {
	Meta    Metadata        `json:"meta"`
	Scores  Scores          `json:"scores"`
	Global  float64         `json:"global_score"`
	Issues  []Issue         `json:"issues"`
	Columns []ColumnSummary `json:"columns"`

	// KindCounts tallies issues per kind for quick rendering.
	KindCounts map[Kind]int `json:"kind_counts"`
}

// buildColumns assembles the per-column summary in header order.
func buildColumns(ds *dataset.Dataset, cfg *rules.Config, vr validityResult, or outlierResult) []ColumnSummary {
	out := make([]ColumnSummary, 0, ds.Columns())
	for _, column := range ds.Header() {
		inferred := coerce.InferColumn(ds.Column(column))
		if rule, ok := cfg.Column(column); ok && rule.Type != "" {
			inferred = rule.Type
		}
		missing := vr.missingByCol[column]
		pct := 0.0
		if ds.Len() > 0 {
			pct = float64(missing) / float64(ds.Len())
		}
		out = append(out, ColumnSummary{
			Column:       column,
			InferredType: string(inferred),
			MissingCount: missing,
			MissingPct:   pct,
			InvalidCount: vr.invalidByCol[column],
			OutlierCount: or.byColumn[column],
		})
	}
	return out
}
