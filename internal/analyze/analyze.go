package analyze

// analyze.go orchestrates one quality run: fork the four detectors, join
// their results, sort the merged issue list, and score.

import (
	"sync"
	"time"

	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

// Analyzer runs quality analysis for one rule configuration. It holds no
// per-run state and is safe for concurrent use.
type Analyzer struct {
	cfg *rules.Config
	now time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithReferenceTime fixes the run's reference timestamp, used by the
// not_future date check. Defaults to the wall clock at New.
func WithReferenceTime(t time.Time) Option {
	return func(a *Analyzer) { a.now = t }
}

// New creates an Analyzer for the given validated rule configuration.
func New(cfg *rules.Config, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg, now: time.Now().UTC()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run analyzes the dataset and returns the full quality report. The four
// detectors run concurrently; the merge step re-establishes the
// deterministic issue order, so the report is a pure function of dataset,
// config, and reference time. Fatal input problems (bad config, bad
// expressions, ragged rows) are rejected before an Analyzer or Dataset can
// be constructed, so Run itself cannot fail.
func (a *Analyzer) Run(ds *dataset.Dataset, meta Metadata) *Report {
	var (
		wg sync.WaitGroup
		vr validityResult
		ur uniquenessResult
		cr consistencyResult
		or outlierResult
	)

	wg.Add(4)
	go func() { defer wg.Done(); vr = checkColumns(ds, a.cfg, a.now) }()
	go func() { defer wg.Done(); ur = checkUniqueness(ds, a.cfg) }()
	go func() { defer wg.Done(); cr = checkConsistency(ds, a.cfg) }()
	go func() { defer wg.Done(); or = checkOutliers(ds, a.cfg) }()
	wg.Wait()

	var collector Collector
	collector.Add(vr.issues)
	collector.Add(ur.issues)
	collector.Add(cr.issues)
	collector.Add(or.issues)
	collector.Sort()

	scores := Scores{
		Completeness: ratioScore(vr.missingCells, vr.totalCells),
		Validity:     ratioScore(vr.invalid, vr.validityChecks),
		Uniqueness:   rateScore(ur.worstRate),
		Consistency:  ratioScore(cr.violations, cr.checks),
		Outliers:     ratioScore(or.outliers, or.considered),
	}

	meta.RowCount = ds.Len()
	meta.ColumnCount = ds.Columns()

	return &Report{
		Meta:       meta,
		Scores:     scores,
		Global:     scores.Weighted(a.cfg.Weights()),
		Issues:     collector.Issues(),
		Columns:    buildColumns(ds, a.cfg, vr, or),
		KindCounts: collector.CountByKind(),
	}
}
