package analyze

// outliers.go flags statistical outliers per numeric column using Tukey
// fences: values outside [Q1 − 1.5·IQR, Q3 + 1.5·IQR]. Columns with fewer
// than MinOutlierSample valid values are skipped entirely, contributing
// neither issues nor denominator.

import (
	"fmt"
	"sort"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
	"github.com/carlhabs/data-quality-analyzer/internal/rules"
)

// MinOutlierSample is the minimum number of valid numeric values a column
// needs before outlier detection applies.
const MinOutlierSample = 5

// iqrFactor scales the interquartile range into the Tukey fences.
const iqrFactor = 1.5

type outlierResult struct {
	issues     []Issue
	outliers   int
	considered int
	byColumn   map[string]int
}

func checkOutliers(ds *dataset.Dataset, cfg *rules.Config) outlierResult {
	res := outlierResult{byColumn: make(map[string]int)}

	for _, column := range ds.Header() {
		if !numericColumn(ds, cfg, column) {
			continue
		}

		rows, values := numericValues(ds, column)
		if len(values) < MinOutlierSample {
			continue
		}
		res.considered += len(values)

		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		lower := q1 - iqrFactor*iqr
		upper := q3 + iqrFactor*iqr

		for i, v := range values {
			if v >= lower && v <= upper {
				continue
			}
			res.outliers++
			res.byColumn[column]++
			res.issues = append(res.issues, Issue{
				Phase:   PhaseOutliers,
				Kind:    KindOutlier,
				Column:  column,
				Row:     rows[i],
				Message: fmt.Sprintf("value %v is outside [%.4g, %.4g]", v, lower, upper),
			})
		}
	}
	return res
}

// numericColumn decides whether a column participates in outlier detection:
// a declared int/float type, or an inferred numeric type when undeclared.
func numericColumn(ds *dataset.Dataset, cfg *rules.Config, column string) bool {
	if rule, ok := cfg.Column(column); ok && rule.Type != "" {
		return coerce.Numeric(rule.Type)
	}
	return coerce.Numeric(coerce.InferColumn(ds.Column(column)))
}

// numericValues collects the validly-typed, non-missing values of a column
// with their row indices, in row order.
func numericValues(ds *dataset.Dataset, column string) ([]int, []float64) {
	var rows []int
	var values []float64
	for row := 0; row < ds.Len(); row++ {
		raw, _ := ds.Value(row, column)
		if coerce.IsMissing(raw) {
			continue
		}
		f, ok := coerce.ParseFloat(raw)
		if !ok {
			continue
		}
		rows = append(rows, row)
		values = append(values, f)
	}
	return rows, values
}

// quantile computes the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
