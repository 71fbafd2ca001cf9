package sources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"company-verify/internal/match"
	"company-verify/internal/signal"
)

var errDomainInvalid = errors.New("domain invalid")

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.0Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
}

// LookupFunc returns the raw WHOIS response for a domain.
type LookupFunc func(ctx context.Context, domain string) (string, error)

// WhoisConfig drives the domain-record source.
type WhoisConfig struct {
	Timeout time.Duration
	// Suffix is the TLD appended to the squashed company name.
	Suffix string
	Lookup LookupFunc
	Now    func() time.Time
}

// WhoisClient estimates trust from the age of the company's guessed website domain.
type WhoisClient struct {
	lookup LookupFunc
	suffix string
	now    func() time.Time
}

// NewWhoisClient returns a domain-record source backed by a live WHOIS client unless
// cfg.Lookup overrides it.
func NewWhoisClient(cfg WhoisConfig) *WhoisClient {
	lookup := cfg.Lookup
	if lookup == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client := whois.NewClient()
		client.SetTimeout(timeout)
		lookup = func(ctx context.Context, domain string) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return client.Whois(domain)
		}
	}
	suffix := strings.TrimSpace(cfg.Suffix)
	if suffix == "" {
		suffix = match.DefaultDomainSuffix
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &WhoisClient{lookup: lookup, suffix: suffix, now: now}
}

func (c *WhoisClient) Source() signal.Source { return signal.DomainRecord }

// Fetch scores one point of confidence per 3.65 days of domain age, capped at 100.
// A missing creation date yields zero confidence rather than an error.
func (c *WhoisClient) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	domain := match.CandidateDomain(match.NormalizeCompany(companyName).Display, c.suffix)
	if domain == "" {
		return signal.Record{}, signal.Unavailable(signal.DomainRecord, signal.ReasonInvalid, errDomainInvalid)
	}

	raw, err := c.lookup(ctx, domain)
	if err != nil {
		return signal.Record{}, fetchFailure(signal.DomainRecord, fmt.Errorf("%w: %v", errDomainInvalid, err))
	}
	info, err := whoisparser.Parse(raw)
	if err != nil {
		return signal.Record{}, signal.Unavailable(signal.DomainRecord, signal.ReasonParse, fmt.Errorf("%w: %v", errDomainInvalid, err))
	}

	var ageDays float64
	if created, ok := creationDate(info); ok {
		ageDays = math.Floor(c.now().Sub(created).Hours() / 24)
		if ageDays < 0 {
			ageDays = 0
		}
	}
	registrar := ""
	if info.Registrar != nil {
		registrar = info.Registrar.Name
	}

	return signal.OK(signal.DomainRecord, math.Min(100, ageDays/365*100), map[string]any{
		"domain":    domain,
		"age_years": math.Round(ageDays/365*10) / 10,
		"registrar": registrar,
	}), nil
}

func creationDate(info whoisparser.WhoisInfo) (time.Time, bool) {
	if info.Domain == nil {
		return time.Time{}, false
	}
	if info.Domain.CreatedDateInTime != nil {
		return *info.Domain.CreatedDateInTime, true
	}
	raw := strings.TrimSpace(info.Domain.CreatedDate)
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
