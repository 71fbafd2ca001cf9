package explain

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"company-verify/internal/verify"
)

type explainerChain struct {
	primary  Explainer
	fallback Explainer
}

// WithFallback returns an explainer that first tries the primary implementation and
// falls back to the provided explainer when the primary is unavailable or produces
// an unusable response.
func WithFallback(primary, fallback Explainer) Explainer {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &explainerChain{primary: primary, fallback: fallback}
}

func (c *explainerChain) Enabled() bool {
	if c == nil {
		return false
	}
	return (c.primary != nil && c.primary.Enabled()) || (c.fallback != nil && c.fallback.Enabled())
}

func (c *explainerChain) Explain(ctx context.Context, report verify.Report) (Explanation, error) {
	if c == nil {
		return Explanation{}, ErrDisabled
	}
	if c.primary != nil && c.primary.Enabled() {
		explanation, err := c.primary.Explain(ctx, report)
		if err == nil && strings.TrimSpace(explanation.Narrative) != "" {
			return explanation, nil
		}
		if err != nil {
			logrus.WithError(err).WithField("company", report.CompanyName).Warn("primary explainer failed")
		}
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return c.fallback.Explain(ctx, report)
	}
	return Explanation{}, ErrDisabled
}
