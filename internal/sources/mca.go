package sources

import (
	"context"
	"net/url"
	"strings"

	"company-verify/internal/match"
	"company-verify/internal/signal"
)

const (
	defaultMCABaseURL = "https://www.mca.gov.in/mcafoportal/companySearch.do"
	mcaNoMatchMarker  = "No matching records found"

	mcaRegisteredConfidence = 90
)

// MCAClient checks the Ministry of Corporate Affairs company search.
type MCAClient struct {
	fetcher *Fetcher
	baseURL string
}

// NewMCAClient returns a registry-A source. An empty baseURL selects the public portal.
func NewMCAClient(fetcher *Fetcher, baseURL string) *MCAClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultMCABaseURL
	}
	return &MCAClient{fetcher: fetcher, baseURL: baseURL}
}

func (c *MCAClient) Source() signal.Source { return signal.RegistryA }

// Fetch reports REGISTERED unless the portal says nothing matched.
func (c *MCAClient) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	profile := match.NormalizeCompany(companyName)
	endpoint := withQuery(c.baseURL, url.Values{"companyName": {profile.Display}})

	body, err := c.fetcher.GetText(ctx, endpoint)
	if err != nil {
		return signal.Record{}, fetchFailure(signal.RegistryA, err)
	}
	if strings.Contains(body, mcaNoMatchMarker) {
		return signal.OK(signal.RegistryA, 0, map[string]any{signal.DetailStatus: "UNREGISTERED"}), nil
	}
	return signal.OK(signal.RegistryA, mcaRegisteredConfidence, map[string]any{signal.DetailStatus: signal.StatusRegistered}), nil
}

func withQuery(base string, params url.Values) string {
	if strings.Contains(base, "?") {
		return base + "&" + params.Encode()
	}
	return base + "?" + params.Encode()
}
