package sources

import (
	"context"
	"net/url"
	"strings"

	"company-verify/internal/match"
	"company-verify/internal/signal"
)

const (
	newsQueryPlaceholder = "{query}"
	newsPenaltyPerReport = 25
)

// DefaultNewsSources are the search pages scanned for adverse coverage.
var DefaultNewsSources = []Named{
	{Name: "Livemint", URL: "https://www.livemint.com/search/{query}"},
	{Name: "Economic Times", URL: "https://economictimes.indiatimes.com/topic/{query}"},
}

// DefaultScamTerms flag a news page as adverse coverage.
var DefaultScamTerms = []string{"scam"}

// ScamReport is one news page that mentioned a scam term.
type ScamReport struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

func (r ScamReport) String() string {
	return r.Source + " " + r.URL
}

// NewsClient scans news search results for scam coverage.
type NewsClient struct {
	fetcher *Fetcher
	sites   []Named
	terms   []string
}

// NewNewsClient returns a news source. Nil sites or terms select the defaults.
func NewNewsClient(fetcher *Fetcher, sites []Named, terms []string) *NewsClient {
	if len(sites) == 0 {
		sites = DefaultNewsSources
	}
	var normalized []string
	for _, term := range terms {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		normalized = DefaultScamTerms
	}
	return &NewsClient{fetcher: fetcher, sites: sites, terms: normalized}
}

func (c *NewsClient) Source() signal.Source { return signal.News }

// Fetch starts at 100 and loses 25 points for every site whose results mention a scam.
func (c *NewsClient) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	display := match.NormalizeCompany(companyName).Display
	if display == "" {
		return signal.Record{}, signal.Unavailable(signal.News, signal.ReasonInvalid, errEmptyName)
	}
	query := url.PathEscape(display)

	reports := make([]ScamReport, 0)
	for _, site := range c.sites {
		pageURL := strings.ReplaceAll(site.URL, newsQueryPlaceholder, query)
		body, err := c.fetcher.GetText(ctx, pageURL)
		if err != nil {
			return signal.Record{}, fetchFailure(signal.News, err)
		}
		if c.mentionsScam(body) {
			reports = append(reports, ScamReport{Source: site.Name, URL: pageURL})
		}
	}

	confidence := 100 - newsPenaltyPerReport*len(reports)
	if confidence < 0 {
		confidence = 0
	}
	return signal.OK(signal.News, float64(confidence), map[string]any{"scam_reports": reports}), nil
}

func (c *NewsClient) mentionsScam(body string) bool {
	lower := strings.ToLower(body)
	for _, term := range c.terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
