package export

// html.go renders the self-contained HTML report. The template is embedded
// so the binary needs no template directory at runtime.

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// maxReportIssues caps the issue rows shown in the HTML report; the full
// list is always available in issues.csv.
const maxReportIssues = 20

var reportTemplate = template.Must(template.New("report.html.tmpl").
	Funcs(template.FuncMap{
		"pct":    func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"pct100": func(f float64) string { return fmt.Sprintf("%.1f", 100*f) },
	}).
	ParseFS(templateFS, "templates/report.html.tmpl"))

type htmlContext struct {
	Report     *analyze.Report
	TopIssues  []analyze.Issue
	MoreIssues int
	Plots      []string
}

// RenderHTML writes the HTML report. plotPaths lists chart image paths
// relative to the report location; pass nil when plots were not generated.
func RenderHTML(w io.Writer, rep *analyze.Report, plotPaths []string) error {
	ctx := htmlContext{Report: rep, Plots: plotPaths}
	ctx.TopIssues = rep.Issues
	if len(rep.Issues) > maxReportIssues {
		ctx.TopIssues = rep.Issues[:maxReportIssues]
		ctx.MoreIssues = len(rep.Issues) - maxReportIssues
	}
	if err := reportTemplate.Execute(w, ctx); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
