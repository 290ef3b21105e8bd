package analyze

// validity.go is the per-column validator: missing cells, declared-type
// coercion, numeric/date ranges, regex patterns, allowed values, and date
// freshness. It also tallies missing cells across every column (ruled or
// not) because the completeness dimension scores the whole table.

import (
	"fmt"
	"strings"
	"time"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

type validityResult struct {
	issues []Issue

	// Completeness tallies: every cell in every column is checked for
	// missingness, independent of declared rules.
	missingCells int
	totalCells   int
	missingByCol map[string]int

	// Validity tallies: only columns whose rule constrains values beyond
	// presence contribute checks. invalidByCol feeds the per-column
	// summary and also counts required-missing cells.
	invalid        int
	validityChecks int
	invalidByCol   map[string]int
}

func checkColumns(ds *dataset.Dataset, cfg *rules.Config, now time.Time) validityResult {
	res := validityResult{
		totalCells:   ds.Len() * ds.Columns(),
		missingByCol: make(map[string]int, ds.Columns()),
		invalidByCol: make(map[string]int),
	}

	for _, column := range ds.Header() {
		rule, hasRule := cfg.Column(column)
		checked := hasRule && rule.HasValidityChecks()
		if checked {
			res.validityChecks += ds.Len()
		}

		for row := 0; row < ds.Len(); row++ {
			raw, _ := ds.Value(row, column)

			if coerce.IsMissing(raw) {
				res.missingCells++
				res.missingByCol[column]++
				if hasRule && rule.Required {
					// The per-column summary counts a required-missing
					// cell as invalid; the validity dimension does not,
					// since completeness already bills it.
					res.invalidByCol[column]++
					res.issues = append(res.issues, Issue{
						Phase:   PhaseValidity,
						Kind:    KindMissing,
						Column:  column,
						Row:     row,
						Message: fmt.Sprintf("required value is missing in column %q", column),
					})
				}
				// A missing cell is counted once, by completeness; the
				// remaining checks are skipped for it.
				continue
			}
			if !checked {
				continue
			}

			for _, is := range checkCell(raw, rule, row, now) {
				res.invalid++
				res.invalidByCol[column]++
				res.issues = append(res.issues, is)
			}
		}
	}

	return res
}

// checkCell applies checks (b)-(e) to one non-missing cell.
func checkCell(raw string, rule rules.ColumnRule, row int, now time.Time) []Issue {
	var issues []Issue
	value := strings.TrimSpace(raw)

	add := func(kind Kind, format string, args ...any) {
		issues = append(issues, Issue{
			Phase:   PhaseValidity,
			Kind:    kind,
			Column:  rule.Column,
			Row:     row,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// Type coercion under the declared type. A failed coercion ends the
	// cell's checks: range and pattern are meaningless for a value that is
	// not of the column's type.
	var typed coerce.Value
	if rule.Type != "" {
		typed = coerce.Coerce(raw, rule.Type)
		if typed.Null {
			add(KindTypeMismatch, "value %q is not a valid %s", value, rule.Type)
			return issues
		}
	}

	// Range checks.
	switch rule.Type {
	case coerce.TypeInt, coerce.TypeFloat:
		f := typed.Float
		if rule.Type == coerce.TypeInt {
			f = float64(typed.Int)
		}
		if rule.Min != nil && f < *rule.Min {
			add(KindRangeViolation, "value %v is below minimum %v", value, *rule.Min)
		}
		if rule.Max != nil && f > *rule.Max {
			add(KindRangeViolation, "value %v is above maximum %v", value, *rule.Max)
		}
	case coerce.TypeDate:
		if rule.MinDate != nil && typed.Time.Before(*rule.MinDate) {
			add(KindRangeViolation, "date %s is before minimum %s", value, rule.MinDate.Format(time.DateOnly))
		}
		if rule.MaxDate != nil && typed.Time.After(*rule.MaxDate) {
			add(KindRangeViolation, "date %s is after maximum %s", value, rule.MaxDate.Format(time.DateOnly))
		}
		if rule.NotFuture && typed.Time.After(now) {
			add(KindRangeViolation, "date %s is in the future", value)
		}
	default:
		// Numeric bounds on an untyped column apply when the value parses.
		if rule.Min != nil || rule.Max != nil {
			if f, ok := coerce.ParseFloat(raw); ok {
				if rule.Min != nil && f < *rule.Min {
					add(KindRangeViolation, "value %v is below minimum %v", value, *rule.Min)
				}
				if rule.Max != nil && f > *rule.Max {
					add(KindRangeViolation, "value %v is above maximum %v", value, *rule.Max)
				}
			}
		}
	}

	// Regex check (string or untyped columns).
	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		add(KindRegexViolation, "value %q does not match pattern %s", value, rule.PatternSrc)
	}

	// Allowed-values check.
	if len(rule.Allowed) > 0 {
		found := false
		for _, allowed := range rule.Allowed {
			if value == allowed {
				found = true
				break
			}
		}
		if !found {
			add(KindNotAllowed, "value %q is not in the allowed set", value)
		}
	}

	return issues
}
