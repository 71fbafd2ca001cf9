package api

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"company-verify/internal/explain"
	"company-verify/internal/scoring"
	"company-verify/internal/signal"
	"company-verify/internal/store"
	"company-verify/internal/verify"
)

// VerifyRequest is the body of POST /api/verify.
type VerifyRequest struct {
	CompanyName string `json:"company_name"`
}

// CheckDTO is the API representation of one source record.
type CheckDTO struct {
	Source     string         `json:"source"`
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Weight     float64        `json:"weight"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ReportDTO is the API representation of a verification report.
type ReportDTO struct {
	ID                string             `json:"id"`
	CompanyName       string             `json:"company_name"`
	Verdict           string             `json:"verdict"`
	VerdictLabel      string             `json:"verdict_label"`
	CompositeScore    float64            `json:"composite_score"`
	Checks            []CheckDTO         `json:"checks"`
	Weights           map[string]float64 `json:"weights"`
	Explanation       string             `json:"explanation,omitempty"`
	ExplanationSource string             `json:"explanation_source,omitempty"`
	Highlights        []string           `json:"highlights,omitempty"`
	ProcessingTimeMs  int64              `json:"processing_time_ms"`
	CheckedAt         time.Time          `json:"checked_at"`
}

// VerificationsResponse holds a page of stored reports.
type VerificationsResponse struct {
	Items []ReportDTO `json:"items"`
	Total int64       `json:"total"`
}

// FromReport converts a finished report into its DTO.
func FromReport(id string, report verify.Report, explanation explain.Explanation, elapsedMs int64, checkedAt time.Time) ReportDTO {
	checks := make([]CheckDTO, 0, len(report.Checks))
	for _, rec := range report.Checks {
		checks = append(checks, checkFromRecord(rec, report.Weights[rec.Source]))
	}
	weights := make(map[string]float64, len(report.Weights))
	for src, w := range report.Weights {
		weights[string(src)] = w
	}
	return ReportDTO{
		ID:                id,
		CompanyName:       report.CompanyName,
		Verdict:           string(report.Verdict),
		VerdictLabel:      report.Verdict.Label(),
		CompositeScore:    report.CompositeScore,
		Checks:            checks,
		Weights:           weights,
		Explanation:       explanation.Narrative,
		ExplanationSource: explanation.Source,
		Highlights:        explanation.Highlights,
		ProcessingTimeMs:  elapsedMs,
		CheckedAt:         checkedAt.UTC(),
	}
}

func checkFromRecord(rec signal.Record, weight float64) CheckDTO {
	rec = rec.Normalize(rec.Source)
	return CheckDTO{
		Source:     string(rec.Source),
		Label:      rec.Source.Label(),
		Confidence: rec.Confidence,
		Weight:     weight,
		Details:    rec.Details,
		Error:      rec.Error,
	}
}

// ToModel builds the audit snapshot for a report DTO.
func ToModel(dto ReportDTO, normalized string) (*store.Verification, error) {
	row := &store.Verification{
		ID:                dto.ID,
		CompanyName:       dto.CompanyName,
		CompanyNormalized: normalized,
		CompositeScore:    dto.CompositeScore,
		Verdict:           dto.Verdict,
		Explanation:       dto.Explanation,
		ExplanationSource: dto.ExplanationSource,
		ProcessingTimeMs:  dto.ProcessingTimeMs,
		CreatedAt:         dto.CheckedAt,
	}
	for _, check := range dto.Checks {
		if check.Error != "" {
			row.FailedSources++
		}
	}
	if err := row.SetChecks(dto.Checks); err != nil {
		return nil, err
	}
	if err := row.SetWeights(dto.Weights); err != nil {
		return nil, err
	}
	if err := row.SetHighlights(dto.Highlights); err != nil {
		return nil, err
	}
	return row, nil
}

// FromModel rebuilds a report DTO from a stored snapshot.
func FromModel(row store.Verification) ReportDTO {
	var checks []CheckDTO
	if err := row.DecodeChecks(&checks); err != nil {
		logrus.WithError(err).WithField("id", row.ID).Warn("decode stored checks")
	}
	verdict := strings.TrimSpace(row.Verdict)
	return ReportDTO{
		ID:                row.ID,
		CompanyName:       row.CompanyName,
		Verdict:           verdict,
		VerdictLabel:      scoring.Verdict(verdict).Label(),
		CompositeScore:    row.CompositeScore,
		Checks:            checks,
		Weights:           row.Weights(),
		Explanation:       row.Explanation,
		ExplanationSource: row.ExplanationSource,
		Highlights:        row.Highlights(),
		ProcessingTimeMs:  row.ProcessingTimeMs,
		CheckedAt:         row.CreatedAt.UTC(),
	}
}
