package explain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"company-verify/internal/scoring"
	"company-verify/internal/signal"
	"company-verify/internal/verify"
)

// Heuristic builds a deterministic narrative from the report alone.
type Heuristic struct{}

// NewHeuristic returns the offline explainer.
func NewHeuristic() Heuristic { return Heuristic{} }

func (Heuristic) Enabled() bool { return true }

// Explain summarizes the strongest and weakest sources behind the verdict.
func (Heuristic) Explain(_ context.Context, report verify.Report) (Explanation, error) {
	var failed []string
	ok := make([]signal.Record, 0, len(report.Checks))
	for _, rec := range report.Checks {
		if rec.Failed() {
			failed = append(failed, rec.Source.Label())
			continue
		}
		ok = append(ok, rec)
	}
	sort.SliceStable(ok, func(i, j int) bool { return ok[i].Confidence > ok[j].Confidence })

	var b strings.Builder
	fmt.Fprintf(&b, "%s scored %.1f out of 100 and is rated %s.",
		report.CompanyName, report.CompositeScore, strings.ToLower(report.Verdict.Label()))

	var highlights []string
	if len(ok) > 0 {
		best := ok[0]
		fmt.Fprintf(&b, " The strongest signal came from %s (%.0f).", best.Source.Label(), best.Confidence)
		highlights = append(highlights, describe(best))
		if len(ok) > 1 {
			worst := ok[len(ok)-1]
			if worst.Confidence < best.Confidence {
				fmt.Fprintf(&b, " The weakest was %s (%.0f).", worst.Source.Label(), worst.Confidence)
				highlights = append(highlights, describe(worst))
			}
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, " %s could not be checked and counted as zero.", strings.Join(failed, ", "))
	}
	switch report.Verdict {
	case scoring.VerdictHighRisk:
		b.WriteString(" Do not onboard without manual due diligence.")
	case scoring.VerdictNeedsReview:
		b.WriteString(" A manual review is recommended.")
	}

	return Explanation{
		Narrative:  b.String(),
		Highlights: highlights,
		Source:     sourceHeuristic,
	}, nil
}

func describe(rec signal.Record) string {
	if status := rec.Status(); status != "" {
		return fmt.Sprintf("%s status %s", rec.Source.Label(), status)
	}
	if _, ok := rec.Details[signal.DetailIsRegistered]; ok {
		if rec.IsRegistered() {
			return fmt.Sprintf("%s lists the company", rec.Source.Label())
		}
		return fmt.Sprintf("%s does not list the company", rec.Source.Label())
	}
	return fmt.Sprintf("%s confidence %.0f", rec.Source.Label(), rec.Confidence)
}
