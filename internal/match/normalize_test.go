package match

import "testing"

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		display string
		listKey string
		slug    string
		key     string
		domain  string
	}{
		{"simple", "Infosys Limited", "Infosys Limited", "INFOSYS LIMITED", "Infosys-Limited", "infosyslimited", "infosyslimited.com"},
		{"extra whitespace", "  Tata   Consultancy\tServices ", "Tata Consultancy Services", "TATA CONSULTANCY SERVICES", "Tata-Consultancy-Services", "tataconsultancyservices", "tataconsultancyservices.com"},
		{"punctuation", "Bajaj Finance Ltd.", "Bajaj Finance Ltd.", "BAJAJ FINANCE LTD.", "Bajaj-Finance-Ltd.", "bajajfinanceltd", "bajajfinanceltd.com"},
		{"embedded dot breaks domain", "Acme.com Ltd", "Acme.com Ltd", "ACME.COM LTD", "Acme.com-Ltd", "acmecomltd", ""},
		{"empty", "   ", "", "", "", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NormalizeCompany(tc.input)
			if p.Display != tc.display {
				t.Fatalf("display: expected %q got %q", tc.display, p.Display)
			}
			if p.ListKey != tc.listKey {
				t.Fatalf("list key: expected %q got %q", tc.listKey, p.ListKey)
			}
			if p.Slug != tc.slug {
				t.Fatalf("slug: expected %q got %q", tc.slug, p.Slug)
			}
			if p.Key != tc.key {
				t.Fatalf("key: expected %q got %q", tc.key, p.Key)
			}
			if p.Domain != tc.domain {
				t.Fatalf("domain: expected %q got %q", tc.domain, p.Domain)
			}
		})
	}
}

func TestCandidateDomainRejectsURLs(t *testing.T) {
	if got := CandidateDomain("https://evil", "com"); got != "" {
		t.Fatalf("expected empty domain, got %q", got)
	}
	if got := CandidateDomain("Reliance", ".in"); got != "reliance.in" {
		t.Fatalf("expected reliance.in, got %q", got)
	}
}
