package scoring

import (
	"math"

	"company-verify/internal/signal"
)

// Verdict is the discrete outcome of a verification.
type Verdict string

const (
	VerdictLegitimate  Verdict = "LEGITIMATE"
	VerdictNeedsReview Verdict = "NEEDS_REVIEW"
	VerdictHighRisk    Verdict = "HIGH_RISK"
)

// Verdict thresholds, inclusive lower bounds.
const (
	LegitimateThreshold  = 75.0
	NeedsReviewThreshold = 50.0
)

// MaxScore bounds both confidences and the composite.
const MaxScore = 100.0

// Label is the human friendly verdict text.
func (v Verdict) Label() string {
	switch v {
	case VerdictLegitimate:
		return "LEGITIMATE"
	case VerdictNeedsReview:
		return "NEEDS REVIEW"
	case VerdictHighRisk:
		return "HIGH RISK"
	default:
		return string(v)
	}
}

// OverallResult is the composite outcome of the weighted signals.
type OverallResult struct {
	Score   float64                   `json:"composite_score"`
	Verdict Verdict                   `json:"verdict"`
	Weights map[signal.Source]float64 `json:"weights"`
}

// Composite computes the weighted average of record confidences. Failed
// records contribute zero confidence at full weight.
func Composite(records []signal.Record, weights map[signal.Source]float64) float64 {
	var sum, total float64
	for _, rec := range records {
		w := weights[rec.Source]
		sum += confidenceOf(rec) * w
		total += w
	}
	if total <= 0 {
		return 0
	}
	return clampScore(sum / total)
}

// VerdictFor maps a composite score onto a verdict tier.
func VerdictFor(score float64) Verdict {
	switch {
	case score >= LegitimateThreshold:
		return VerdictLegitimate
	case score >= NeedsReviewThreshold:
		return VerdictNeedsReview
	default:
		return VerdictHighRisk
	}
}

// CombineRecommendation weights the records, scores them and picks a verdict.
// The verdict uses the unrounded score; the returned score is rounded to one decimal.
func CombineRecommendation(records []signal.Record) OverallResult {
	weights := Weights(records)
	score := Composite(records, weights)
	return OverallResult{
		Score:   Round1(score),
		Verdict: VerdictFor(score),
		Weights: weights,
	}
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func confidenceOf(rec signal.Record) float64 {
	if rec.Failed() || math.IsNaN(rec.Confidence) {
		return 0
	}
	return rec.Confidence
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
