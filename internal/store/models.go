package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Verification is an audit snapshot of one finished verification report.
type Verification struct {
	ID                string  `gorm:"primaryKey;size:36"`
	CompanyName       string  `gorm:"size:255;index"`
	CompanyNormalized string  `gorm:"size:255;index"`
	CompositeScore    float64 `gorm:"index"`
	Verdict           string  `gorm:"size:32;index"`
	FailedSources     int
	ChecksJSON        string `gorm:"type:text"`
	WeightsJSON       string `gorm:"type:text"`
	Explanation       string `gorm:"type:text"`
	ExplanationSource string `gorm:"size:32"`
	HighlightsJSON    string `gorm:"type:text"`
	ProcessingTimeMs  int64
	CreatedAt         time.Time `gorm:"autoCreateTime;index"`
}

// SetChecks persists the per-source records as JSON.
func (v *Verification) SetChecks(checks any) error {
	payload, err := json.Marshal(checks)
	if err != nil {
		return err
	}
	v.ChecksJSON = string(payload)
	return nil
}

// DecodeChecks unmarshals the stored records into out.
func (v *Verification) DecodeChecks(out any) error {
	if strings.TrimSpace(v.ChecksJSON) == "" {
		return nil
	}
	return json.Unmarshal([]byte(v.ChecksJSON), out)
}

// SetWeights persists the weight map as JSON.
func (v *Verification) SetWeights(weights any) error {
	payload, err := json.Marshal(weights)
	if err != nil {
		return err
	}
	v.WeightsJSON = string(payload)
	return nil
}

// Weights returns the decoded weight map keyed by source name.
func (v *Verification) Weights() map[string]float64 {
	if strings.TrimSpace(v.WeightsJSON) == "" {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal([]byte(v.WeightsJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetHighlights persists the narrative highlights as JSON.
func (v *Verification) SetHighlights(highlights []string) error {
	if len(highlights) == 0 {
		v.HighlightsJSON = ""
		return nil
	}
	payload, err := json.Marshal(highlights)
	if err != nil {
		return err
	}
	v.HighlightsJSON = string(payload)
	return nil
}

// Highlights returns the decoded narrative highlights.
func (v *Verification) Highlights() []string {
	if strings.TrimSpace(v.HighlightsJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(v.HighlightsJSON), &out); err != nil {
		return nil
	}
	return out
}
