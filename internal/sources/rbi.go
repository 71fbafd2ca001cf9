package sources

import (
	"context"
	"strings"

	"company-verify/internal/match"
	"company-verify/internal/signal"
)

const (
	rbiListedConfidence   = 95
	rbiUnlistedConfidence = 70
)

// DefaultRBILists are the published NBFC registers, checked in order.
var DefaultRBILists = []Named{
	{Name: "Active NBFCs", URL: "https://www.rbi.org.in/Scripts/bs_viewcontent.aspx?Id=2009"},
	{Name: "Microfinance NBFCs", URL: "https://www.rbi.org.in/Scripts/bs_viewcontent.aspx?Id=2078"},
}

// RBIClient looks a company up in the Reserve Bank's NBFC lists.
type RBIClient struct {
	fetcher *Fetcher
	lists   []Named
}

// NewRBIClient returns a regulator-list source. Nil lists select DefaultRBILists.
func NewRBIClient(fetcher *Fetcher, lists []Named) *RBIClient {
	if len(lists) == 0 {
		lists = DefaultRBILists
	}
	return &RBIClient{fetcher: fetcher, lists: lists}
}

func (c *RBIClient) Source() signal.Source { return signal.RegulatorList }

// Fetch stops at the first list whose text contains the upper-cased company name.
// A failure fetching any list fails the whole source.
func (c *RBIClient) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	key := match.NormalizeCompany(companyName).ListKey
	if key == "" {
		return signal.Record{}, signal.Unavailable(signal.RegulatorList, signal.ReasonInvalid, errEmptyName)
	}
	for _, list := range c.lists {
		body, err := c.fetcher.GetText(ctx, list.URL)
		if err != nil {
			return signal.Record{}, fetchFailure(signal.RegulatorList, err)
		}
		if strings.Contains(body, key) {
			return signal.OK(signal.RegulatorList, rbiListedConfidence, map[string]any{
				signal.DetailIsRegistered: true,
				"list":                    list.Name,
			}), nil
		}
	}
	return signal.OK(signal.RegulatorList, rbiUnlistedConfidence, map[string]any{
		signal.DetailIsRegistered: false,
	}), nil
}
