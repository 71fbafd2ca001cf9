package match

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	nonAlphaNum = regexp.MustCompile(`[^a-z0-9]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// DefaultDomainSuffix is appended to the squashed company name to guess its website.
const DefaultDomainSuffix = "com"

// CompanyProfile captures the normalization output for a company name.
type CompanyProfile struct {
	// Display is the name with whitespace collapsed; it is what sources query with.
	Display string
	// ListKey is the upper-cased name used for substring checks against published lists.
	ListKey string
	// Slug joins the words of the display name with dashes, preserving case.
	Slug string
	// Key is the lowercase alphanumeric form used for history search.
	Key string
	// Domain is the guessed website domain, empty when no valid domain can be formed.
	Domain string
}

// NormalizeCompany normalizes and tokenizes a free-text company name.
func NormalizeCompany(input string) CompanyProfile {
	display := strings.TrimSpace(multiSpace.ReplaceAllString(input, " "))
	tokens := strings.Fields(display)

	return CompanyProfile{
		Display: display,
		ListKey: strings.ToUpper(display),
		Slug:    strings.Join(tokens, "-"),
		Key:     nonAlphaNum.ReplaceAllString(strings.ToLower(display), ""),
		Domain:  CandidateDomain(display, DefaultDomainSuffix),
	}
}

// CandidateDomain squashes the name into a single lowercase label under suffix and
// returns it only when it forms a registrable domain.
func CandidateDomain(name, suffix string) string {
	label := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	label = strings.Trim(label, ".")
	if label == "" || strings.ContainsAny(label, "/?#@:") {
		return ""
	}
	host := label + "." + strings.TrimPrefix(suffix, ".")
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || registrable != host {
		return ""
	}
	return host
}
