// Package export renders a quality report for human and machine consumers:
// summary.csv, issues.csv, an HTML report, and PNG charts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
)

// WriteSummaryCSV writes the per-column summary plus a final __global__ row
// carrying the dimension scores and the global score.
func WriteSummaryCSV(w io.Writer, rep *analyze.Report) error {
	cw := csv.NewWriter(w)

	header := []string{
		"column", "inferred_type", "missing_count", "missing_pct",
		"invalid_count", "outlier_count",
		"score_completeness", "score_validity", "score_uniqueness",
		"score_consistency", "score_outliers", "score_global",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, col := range rep.Columns {
		record := []string{
			col.Column,
			col.InferredType,
			strconv.Itoa(col.MissingCount),
			formatFloat(col.MissingPct),
			strconv.Itoa(col.InvalidCount),
			strconv.Itoa(col.OutlierCount),
			"", "", "", "", "", "",
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	global := []string{
		"__global__", "", "", "", "", "",
		formatFloat(rep.Scores.Completeness),
		formatFloat(rep.Scores.Validity),
		formatFloat(rep.Scores.Uniqueness),
		formatFloat(rep.Scores.Consistency),
		formatFloat(rep.Scores.Outliers),
		formatFloat(rep.Global),
	}
	if err := cw.Write(global); err != nil {
		return fmt.Errorf("write summary global row: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// WriteIssuesCSV writes the ordered issue list.
func WriteIssuesCSV(w io.Writer, rep *analyze.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"kind", "column", "row", "rule", "message"}); err != nil {
		return fmt.Errorf("write issues header: %w", err)
	}
	for _, issue := range rep.Issues {
		record := []string{
			string(issue.Kind),
			issue.Column,
			strconv.Itoa(issue.Row),
			issue.Rule,
			issue.Message,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write issue row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
