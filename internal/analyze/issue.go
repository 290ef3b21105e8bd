// Package analyze runs the quality detectors over an immutable dataset and
// rule config and assembles the scored quality report.
//
// The four detection phases (column validation, uniqueness, row-rule
// consistency, outliers) are independent: each reads only the dataset and the
// config and writes only its own buffers, so they run on separate goroutines
// and their outputs are merged afterward with a stable sort. The sort key
// (phase, row, column, kind, rule) makes the report independent of goroutine
// completion order.
package analyze

import "sort"

// Phase identifies the detection phase that produced an issue. Phases order
// the final issue list: validator → uniqueness → consistency → outliers.
type Phase int

const (
	PhaseValidity Phase = iota
	PhaseUniqueness
	PhaseConsistency
	PhaseOutliers
)

// Kind classifies a detected issue.
type Kind string

const (
	KindMissing          Kind = "missing"
	KindTypeMismatch     Kind = "type_mismatch"
	KindRangeViolation   Kind = "range_violation"
	KindRegexViolation   Kind = "regex_violation"
	KindNotAllowed       Kind = "not_allowed"
	KindDuplicate        Kind = "duplicate"
	KindRowRuleViolation Kind = "row_rule_violation"
	KindOutlier          Kind = "outlier"
)

// Issue is one detected quality problem.
type Issue struct {
	Phase   Phase  `json:"-"`
	Kind    Kind   `json:"kind"`
	Column  string `json:"column,omitempty"`
	Row     int    `json:"row"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// Collector accumulates issue batches from the detectors and fixes their
// deterministic order.
type Collector struct {
	issues []Issue
}

// Add appends a batch of issues.
func (c *Collector) Add(batch []Issue) {
	c.issues = append(c.issues, batch...)
}

// Sort orders all collected issues by (phase, row, column, kind, rule).
func (c *Collector) Sort() {
	sort.SliceStable(c.issues, func(i, j int) bool {
		a, b := c.issues[i], c.issues[j]
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Rule < b.Rule
	})
}

// Issues returns the collected issues. Callers must not modify the slice.
func (c *Collector) Issues() []Issue { return c.issues }

// ByKind returns the issues of one kind, preserving order.
func (c *Collector) ByKind(k Kind) []Issue {
	var out []Issue
	for _, is := range c.issues {
		if is.Kind == k {
			out = append(out, is)
		}
	}
	return out
}

// ByColumn returns the issues referencing one column, preserving order.
func (c *Collector) ByColumn(column string) []Issue {
	var out []Issue
	for _, is := range c.issues {
		if is.Column == column {
			out = append(out, is)
		}
	}
	return out
}

// CountByKind tallies issues per kind.
func (c *Collector) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, is := range c.issues {
		counts[is.Kind]++
	}
	return counts
}
