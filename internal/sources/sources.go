package sources

import (
	"time"

	"company-verify/internal/verify"
)

// Config collects the settings of every live source.
type Config struct {
	HTTP         HTTPConfig
	MCABaseURL   string
	ZaubaBaseURL string
	RBILists     []Named
	NewsSites    []Named
	ScamTerms    []string
	WhoisTimeout time.Duration
	// CacheTTL enables a per-company cache of successful records when positive.
	CacheTTL time.Duration
}

// SourceBudget is the per-source deadline that lets the busiest source finish:
// every configured page fetch gets the HTTP timeout plus the politeness delay.
func (c Config) SourceBudget() time.Duration {
	perFetch := c.HTTP.Timeout
	if perFetch <= 0 {
		perFetch = defaultTimeout
	}
	if c.HTTP.Delay > 0 {
		perFetch += c.HTTP.Delay
	}
	fetches := 1
	for _, n := range []int{listCount(c.RBILists, DefaultRBILists), listCount(c.NewsSites, DefaultNewsSources)} {
		if n > fetches {
			fetches = n
		}
	}
	budget := perFetch * time.Duration(fetches)
	if c.WhoisTimeout > budget {
		budget = c.WhoisTimeout
	}
	return budget
}

func listCount(configured, defaults []Named) int {
	if len(configured) > 0 {
		return len(configured)
	}
	return len(defaults)
}

// Set holds the six live sources.
type Set struct {
	MCA   *MCAClient
	MSME  *MSMEClient
	RBI   *RBIClient
	Zauba *ZaubaClient
	Whois *WhoisClient
	News  *NewsClient

	cacheTTL time.Duration
}

// New builds every source sharing one page fetcher.
func New(cfg Config) *Set {
	fetcher := NewFetcher(cfg.HTTP)
	return &Set{
		MCA:   NewMCAClient(fetcher, cfg.MCABaseURL),
		MSME:  NewMSMEClient(),
		RBI:   NewRBIClient(fetcher, cfg.RBILists),
		Zauba: NewZaubaClient(fetcher, cfg.ZaubaBaseURL),
		Whois: NewWhoisClient(WhoisConfig{Timeout: cfg.WhoisTimeout}),
		News:  NewNewsClient(fetcher, cfg.NewsSites, cfg.ScamTerms),

		cacheTTL: cfg.CacheTTL,
	}
}

// All returns the sources in canonical order, ready for verify.NewVerifier.
func (s *Set) All() []verify.Source {
	all := []verify.Source{s.MCA, s.MSME, s.RBI, s.Zauba, s.Whois, s.News}
	for i, src := range all {
		all[i] = WithCache(src, s.cacheTTL)
	}
	return all
}
