package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/export"
	"github.com/carlhabs/data-quality-analyzer/internal/logging"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

type runFlags struct {
	input     string
	out       string
	rules     string
	format    string
	delimiter string
	encoding  string
	idCols    string
	verbose   bool
}

// runCommand analyzes one CSV file and writes the requested artifacts.
// Returns the process exit code.
func runCommand(args []string) int {
	var f runFlags
	fs := flag.NewFlagSet("dqa run", flag.ContinueOnError)
	fs.StringVar(&f.input, "input", "", "path to the CSV file to analyze (required)")
	fs.StringVar(&f.out, "out", "dqa_out", "output directory for report artifacts")
	fs.StringVar(&f.rules, "rules", "", "path to a YAML rules file")
	fs.StringVar(&f.format, "format", "html,csv", "comma-separated output formats: html, csv")
	fs.StringVar(&f.delimiter, "delimiter", ",", "CSV field delimiter (single character)")
	fs.StringVar(&f.encoding, "encoding", "utf-8", "input encoding: utf-8 or latin-1")
	fs.StringVar(&f.idCols, "id-cols", "", "comma-separated columns forming a unique record id")
	fs.BoolVar(&f.verbose, "verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := "info"
	if f.verbose {
		level = "debug"
	}
	logging.Setup(level, "text")

	if err := run(f); err != nil {
		slog.Error("analysis failed", "error", err)
		return 2
	}
	return 0
}

func run(f runFlags) error {
	if f.input == "" {
		return fmt.Errorf("-input is required")
	}
	if utf8.RuneCountInString(f.delimiter) != 1 {
		return fmt.Errorf("delimiter %q must be a single character", f.delimiter)
	}
	delim, _ := utf8.DecodeRuneInString(f.delimiter)

	formats, err := parseFormats(f.format)
	if err != nil {
		return err
	}

	start := time.Now()

	in, err := os.Open(f.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	ds, err := dataset.ReadCSV(in, dataset.CSVOptions{Delimiter: delim, Encoding: f.encoding})
	if err != nil {
		return fmt.Errorf("read %s: %w", f.input, err)
	}
	slog.Debug("dataset loaded", "rows", ds.Len(), "columns", ds.Columns())

	idCols := splitList(f.idCols)

	ruleFile := &rules.File{}
	if f.rules != "" {
		rf, err := os.Open(f.rules)
		if err != nil {
			return fmt.Errorf("open rules: %w", err)
		}
		ruleFile, err = rules.Load(rf)
		rf.Close()
		if err != nil {
			return fmt.Errorf("load rules %s: %w", f.rules, err)
		}
	}

	cfg, absent, err := rules.Compile(ruleFile, ds.Header(), idCols)
	if err != nil {
		return fmt.Errorf("compile rules: %w", err)
	}
	for _, column := range absent {
		slog.Warn("rules reference column not present in dataset; skipped", "column", column)
	}

	rep := analyze.New(cfg).Run(ds, analyze.Metadata{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		InputName:   filepath.Base(f.input),
		RulesPath:   f.rules,
		IDColumns:   idCols,
	})

	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if formats["csv"] {
		if err := writeFile(filepath.Join(f.out, "summary.csv"), func(w *os.File) error {
			return export.WriteSummaryCSV(w, rep)
		}); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(f.out, "issues.csv"), func(w *os.File) error {
			return export.WriteIssuesCSV(w, rep)
		}); err != nil {
			return err
		}
	}

	if formats["html"] {
		plotPaths, err := export.WritePlots(f.out, ds, rep)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(f.out, "report.html"), func(w *os.File) error {
			return export.RenderHTML(w, rep, plotPaths)
		}); err != nil {
			return err
		}
	}

	slog.Info("analysis complete",
		"run_id", rep.Meta.RunID,
		"rows", rep.Meta.RowCount,
		"issues", len(rep.Issues),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	fmt.Printf("global score %.1f/100 (%d issues), artifacts in %s\n",
		rep.Global, len(rep.Issues), f.out)
	return nil
}

func parseFormats(v string) (map[string]bool, error) {
	formats := map[string]bool{}
	for _, part := range splitList(v) {
		switch part {
		case "html", "csv":
			formats[part] = true
		default:
			return nil, fmt.Errorf("unknown format %q (want html or csv)", part)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output formats selected")
	}
	return formats, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
