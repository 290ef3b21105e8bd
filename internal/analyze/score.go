package analyze

// score.go turns raw violation tallies into 0-100 dimension sub-scores and
// the weighted global score. A dimension with zero applicable checks scores
// 100: nothing to penalize.

import "github.com/carlhabs/data-quality-analyzer/internal/rules"

// Dimension names one of the five quality axes.
type Dimension string

const (
	DimCompleteness Dimension = "completeness"
	DimValidity     Dimension = "validity"
	DimUniqueness   Dimension = "uniqueness"
	DimConsistency  Dimension = "consistency"
	DimOutliers     Dimension = "outliers"
)

// Scores holds the five dimension sub-scores, each in [0,100].
type Scores struct {
	Completeness float64 `json:"completeness"`
	Validity     float64 `json:"validity"`
	Uniqueness   float64 `json:"uniqueness"`
	Consistency  float64 `json:"consistency"`
	Outliers     float64 `json:"outliers"`
}

// DimensionScore pairs a dimension with its sub-score.
type DimensionScore struct {
	Dimension Dimension `json:"dimension"`
	Value     float64   `json:"value"`
}

// List returns the sub-scores in fixed dimension order.
func (s Scores) List() []DimensionScore {
	return []DimensionScore{
		{DimCompleteness, s.Completeness},
		{DimValidity, s.Validity},
		{DimUniqueness, s.Uniqueness},
		{DimConsistency, s.Consistency},
		{DimOutliers, s.Outliers},
	}
}

// Weighted combines the sub-scores into the global score using the weight
// table, clamped to [0,100].
func (s Scores) Weighted(w rules.Weights) float64 {
	total := float64(w.Completeness)*s.Completeness +
		float64(w.Validity)*s.Validity +
		float64(w.Uniqueness)*s.Uniqueness +
		float64(w.Consistency)*s.Consistency +
		float64(w.Outliers)*s.Outliers
	return clamp(total / float64(w.Sum()))
}

// rateScore maps a violation rate in [0,1] onto [0,100].
func rateScore(rate float64) float64 {
	return clamp(100 * (1 - rate))
}

// ratioScore maps violations/checks onto [0,100]. Zero checks score 100.
func ratioScore(violations, checks int) float64 {
	if checks <= 0 {
		return 100
	}
	return clamp(100 * (1 - float64(violations)/float64(checks)))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
