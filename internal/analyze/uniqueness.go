package analyze

// uniqueness.go detects duplicate rows: full-row duplicates plus duplicates
// on declared composite keys. Rows with a null value in any key column are
// excluded from key checks; their missingness is already scored by the
// completeness dimension. The dimension score reflects the key with the
// highest duplicate rate, so a clean full-row check cannot dilute a
// duplicate-heavy declared key.

import (
	"fmt"
	"strings"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

// FullRowKey names the implicit unique key covering every column.
const FullRowKey = "__row__"

// keySeparator joins normalized key parts. The unit separator cannot appear
// in CSV cell values that survived parsing.
const keySeparator = "\x1f"

type uniquenessResult struct {
	issues []Issue

	// worstRate is the highest per-key duplicate rate across the full-row
	// key and every declared key. The uniqueness dimension scores the
	// worst-behaved key, not the pooled total.
	worstRate float64
}

func checkUniqueness(ds *dataset.Dataset, cfg *rules.Config) uniquenessResult {
	var res uniquenessResult

	// Full-row duplicates always apply, even without declared keys.
	res.check(ds, rules.UniqueKeySpec{Name: FullRowKey, Columns: ds.Header()}, true)

	for _, spec := range cfg.UniqueKeys() {
		res.check(ds, spec, false)
	}
	return res
}

// check scans one key spec. includeNulls keeps rows with null key cells in
// the scan, which is wanted only for the full-row check.
func (res *uniquenessResult) check(ds *dataset.Dataset, spec rules.UniqueKeySpec, includeNulls bool) {
	firstSeen := make(map[string]int, ds.Len())
	columnRef := strings.Join(spec.Columns, ",")
	duplicates, checks := 0, 0

	for row := 0; row < ds.Len(); row++ {
		key, ok := rowKey(ds, row, spec.Columns, includeNulls)
		if !ok {
			continue
		}
		checks++

		if first, dup := firstSeen[key]; dup {
			duplicates++
			msg := fmt.Sprintf("row %d duplicates row %d on key (%s)", row, first, columnRef)
			if spec.Name == FullRowKey {
				msg = fmt.Sprintf("row %d is an exact duplicate of row %d", row, first)
			}
			res.issues = append(res.issues, Issue{
				Phase:   PhaseUniqueness,
				Kind:    KindDuplicate,
				Column:  columnRefFor(spec),
				Row:     row,
				Rule:    spec.Name,
				Message: msg,
			})
			continue
		}
		firstSeen[key] = row
	}

	if checks > 0 {
		if rate := float64(duplicates) / float64(checks); rate > res.worstRate {
			res.worstRate = rate
		}
	}
}

func columnRefFor(spec rules.UniqueKeySpec) string {
	if spec.Name == FullRowKey {
		return ""
	}
	return strings.Join(spec.Columns, ",")
}

// rowKey builds the normalized key tuple for one row. ok is false when the
// row is excluded because a key cell is null.
func rowKey(ds *dataset.Dataset, row int, columns []string, includeNulls bool) (string, bool) {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		raw, _ := ds.Value(row, col)
		if !includeNulls && coerce.IsMissing(raw) {
			return "", false
		}
		parts = append(parts, strings.TrimSpace(raw))
	}
	return strings.Join(parts, keySeparator), true
}
