package sources

import (
	"context"

	"company-verify/internal/signal"
)

const msmeStubConfidence = 30

// MSMEClient is a placeholder for the Udyam small-business registry, whose live
// search sits behind a captcha.
type MSMEClient struct{}

// NewMSMEClient returns a stub registry-B source.
func NewMSMEClient() *MSMEClient {
	return &MSMEClient{}
}

func (c *MSMEClient) Source() signal.Source { return signal.RegistryB }

// Fetch always answers UNKNOWN with a low baseline confidence.
func (c *MSMEClient) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	if err := ctx.Err(); err != nil {
		return signal.Record{}, fetchFailure(signal.RegistryB, err)
	}
	return signal.OK(signal.RegistryB, msmeStubConfidence, map[string]any{
		signal.DetailStatus: "UNKNOWN",
		"detail":            "Live check restricted",
	}), nil
}
