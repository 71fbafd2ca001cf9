package sources

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"company-verify/internal/match"
	"company-verify/internal/signal"
)

const (
	defaultZaubaBaseURL = "https://www.zauba.com/company-"

	zaubaHistoryConfidence   = 80
	zaubaNoHistoryConfidence = 30
)

var zaubaNoRecords = regexp.MustCompile(`No records found`)

// ZaubaClient checks the company's import/export trade history page.
type ZaubaClient struct {
	fetcher *Fetcher
	baseURL string
}

// NewZaubaClient returns a trade-history source. The company slug is appended to baseURL.
func NewZaubaClient(fetcher *Fetcher, baseURL string) *ZaubaClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultZaubaBaseURL
	}
	return &ZaubaClient{fetcher: fetcher, baseURL: baseURL}
}

func (c *ZaubaClient) Source() signal.Source { return signal.TradeHistory }

// Fetch reports trade history unless the page body carries a "No records found" text node.
func (c *ZaubaClient) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	slug := match.NormalizeCompany(companyName).Slug
	if slug == "" {
		return signal.Record{}, signal.Unavailable(signal.TradeHistory, signal.ReasonInvalid, errEmptyName)
	}

	body, err := c.fetcher.GetText(ctx, c.baseURL+slug)
	if err != nil {
		return signal.Record{}, fetchFailure(signal.TradeHistory, err)
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return signal.Record{}, signal.Unavailable(signal.TradeHistory, signal.ReasonParse, err)
	}

	if findText(doc, zaubaNoRecords) {
		return signal.OK(signal.TradeHistory, zaubaNoHistoryConfidence, map[string]any{"has_trade_history": false}), nil
	}
	return signal.OK(signal.TradeHistory, zaubaHistoryConfidence, map[string]any{"has_trade_history": true}), nil
}

// findText reports whether any text node under n matches re. Script and style
// contents are ignored.
func findText(n *html.Node, re *regexp.Regexp) bool {
	if n.Type == html.TextNode && re.MatchString(n.Data) {
		return true
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return false
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if findText(child, re) {
			return true
		}
	}
	return false
}
