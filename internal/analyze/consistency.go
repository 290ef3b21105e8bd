package analyze

// consistency.go evaluates the compiled row rules against every row. A rule
// fires only when its expression is definitively false; indeterminate
// results (null operands) never count as violations.

import (
	"fmt"

	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

type consistencyResult struct {
	issues     []Issue
	violations int
	checks     int
}

// rowView adapts one dataset row to the expression evaluator's RowValues.
type rowView struct {
	ds  *dataset.Dataset
	row int
}

func (r rowView) Value(column string) (string, bool) {
	return r.ds.Value(r.row, column)
}

func checkConsistency(ds *dataset.Dataset, cfg *rules.Config) consistencyResult {
	ruleSet := cfg.RowRules()
	res := consistencyResult{checks: ds.Len() * len(ruleSet)}

	for row := 0; row < ds.Len(); row++ {
		view := rowView{ds: ds, row: row}
		for _, rule := range ruleSet {
			if !rule.Violated(view) {
				continue
			}
			res.violations++
			res.issues = append(res.issues, Issue{
				Phase:   PhaseConsistency,
				Kind:    KindRowRuleViolation,
				Row:     row,
				Rule:    rule.Name,
				Message: fmt.Sprintf("row %d violates rule %q (%s)", row, rule.Name, rule.Source),
			})
		}
	}
	return res
}
