package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company-verify/internal/signal"
)

func testFetcher() *Fetcher {
	return NewFetcher(HTTPConfig{Timeout: 5 * time.Second})
}

func pageServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMCAClient(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("companyName")
		gotUA = r.Header.Get("User-Agent")
		if strings.Contains(gotQuery, "Ghost") {
			fmt.Fprint(w, "<html><body>No matching records found</body></html>")
			return
		}
		fmt.Fprint(w, "<html><body><table><tr><td>ACME WIDGETS PRIVATE LIMITED</td></tr></table></body></html>")
	}))
	defer srv.Close()

	client := NewMCAClient(testFetcher(), srv.URL+"/search")
	assert.Equal(t, signal.RegistryA, client.Source())

	rec, err := client.Fetch(context.Background(), "  Acme   Widgets ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", gotQuery)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, 90.0, rec.Confidence)
	assert.Equal(t, "REGISTERED", rec.Status())

	rec, err = client.Fetch(context.Background(), "Ghost Traders")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Confidence)
	assert.Equal(t, "UNREGISTERED", rec.Status())
	assert.False(t, rec.Failed())
}

func TestMCAClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewMCAClient(testFetcher(), srv.URL).Fetch(context.Background(), "Acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, signal.ErrSourceUnavailable))
	assert.Equal(t, signal.ReasonFetch, signal.ReasonOf(err))
	assert.Contains(t, err.Error(), "status 503")
}

func TestMSMEClientIsStub(t *testing.T) {
	rec, err := NewMSMEClient().Fetch(context.Background(), "Anything")
	require.NoError(t, err)
	assert.Equal(t, signal.RegistryB, rec.Source)
	assert.Equal(t, 30.0, rec.Confidence)
	assert.Equal(t, "UNKNOWN", rec.Status())
	assert.Equal(t, "Live check restricted", rec.Details["detail"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMSMEClient().Fetch(ctx, "Anything")
	assert.Error(t, err)
}

func TestRBIClient(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/active": "<table><tr><td>BAJAJ FINANCE LIMITED</td></tr></table>",
		"/micro":  "<table><tr><td>UJJIVAN FINANCIAL SERVICES</td></tr></table>",
	})
	lists := []Named{
		{Name: "Active NBFCs", URL: srv.URL + "/active"},
		{Name: "Microfinance NBFCs", URL: srv.URL + "/micro"},
	}
	client := NewRBIClient(testFetcher(), lists)

	tests := []struct {
		name       string
		company    string
		registered bool
		confidence float64
		list       any
	}{
		{"first list", "Bajaj Finance Limited", true, 95, "Active NBFCs"},
		{"second list", "ujjivan financial services", true, 95, "Microfinance NBFCs"},
		{"absent", "Acme Widgets", false, 70, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := client.Fetch(context.Background(), tc.company)
			require.NoError(t, err)
			assert.Equal(t, tc.registered, rec.IsRegistered())
			assert.Equal(t, tc.confidence, rec.Confidence)
			assert.Equal(t, tc.list, rec.Details["list"])
		})
	}
}

func TestRBIClientListFailureFailsSource(t *testing.T) {
	srv := pageServer(t, map[string]string{"/active": "nothing here"})
	client := NewRBIClient(testFetcher(), []Named{
		{Name: "Active NBFCs", URL: srv.URL + "/active"},
		{Name: "Missing", URL: srv.URL + "/missing"},
	})
	_, err := client.Fetch(context.Background(), "Acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, signal.ErrSourceUnavailable))
}

func TestZaubaClient(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/company-Acme-Widgets":  "<html><body><h1>ACME WIDGETS</h1><p>Shipments: 42</p></body></html>",
		"/company-Ghost-Traders": "<html><body><div class=\"empty\">No records found for this company</div></body></html>",
		"/company-Script-Only":   "<html><head><script>var msg = 'No records found';</script></head><body>Imports listed</body></html>",
	})
	client := NewZaubaClient(testFetcher(), srv.URL+"/company-")

	tests := []struct {
		company    string
		history    bool
		confidence float64
	}{
		{"Acme Widgets", true, 80},
		{"Ghost Traders", false, 30},
		{"Script Only", true, 80},
	}
	for _, tc := range tests {
		t.Run(tc.company, func(t *testing.T) {
			rec, err := client.Fetch(context.Background(), tc.company)
			require.NoError(t, err)
			assert.Equal(t, tc.history, rec.Details["has_trade_history"])
			assert.Equal(t, tc.confidence, rec.Confidence)
		})
	}

	_, err := client.Fetch(context.Background(), "Unknown Co")
	assert.Error(t, err, "404 must fail the source")
}

func TestNewsClient(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/mint/Clean Co":  "Clean Co posts record profits",
		"/et/Clean Co":    "Clean Co expands",
		"/mint/Shady Ltd": "Investors allege SCAM at Shady Ltd",
		"/et/Shady Ltd":   "Shady Ltd scam probe widens",
		"/mint/Half Inc":  "Half Inc fraud alleged",
		"/et/Half Inc":    "nothing to see",
	})
	sites := []Named{
		{Name: "Livemint", URL: srv.URL + "/mint/{query}"},
		{Name: "Economic Times", URL: srv.URL + "/et/{query}"},
	}

	client := NewNewsClient(testFetcher(), sites, nil)
	rec, err := client.Fetch(context.Background(), "Clean Co")
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.Confidence)
	assert.Empty(t, rec.Details["scam_reports"])

	rec, err = client.Fetch(context.Background(), "Shady Ltd")
	require.NoError(t, err)
	assert.Equal(t, 50.0, rec.Confidence)
	reports, ok := rec.Details["scam_reports"].([]ScamReport)
	require.True(t, ok)
	require.Len(t, reports, 2)
	assert.Equal(t, "Livemint", reports[0].Source)
	assert.Equal(t, srv.URL+"/mint/Shady%20Ltd", reports[0].URL)

	rec, err = client.Fetch(context.Background(), "Half Inc")
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.Confidence, "fraud is not a default term")

	custom := NewNewsClient(testFetcher(), sites, []string{" Fraud "})
	rec, err = custom.Fetch(context.Background(), "Half Inc")
	require.NoError(t, err)
	assert.Equal(t, 75.0, rec.Confidence)
}

func TestNewsClientConfidenceFloor(t *testing.T) {
	srv := pageServer(t, map[string]string{"/p": "scam"})
	var sites []Named
	for i := 0; i < 6; i++ {
		sites = append(sites, Named{Name: fmt.Sprintf("site-%d", i), URL: srv.URL + "/p"})
	}
	rec, err := NewNewsClient(testFetcher(), sites, nil).Fetch(context.Background(), "Anyone")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Confidence)
}

const sampleWhois = `   Domain Name: INFOSYS.COM
   Registry Domain ID: 4577417_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.markmonitor.com
   Registrar URL: http://www.markmonitor.com
   Updated Date: 2023-03-02T10:07:14Z
   Creation Date: 1992-04-01T04:00:00Z
   Registry Expiry Date: 2025-04-02T04:00:00Z
   Registrar: MarkMonitor Inc.
   Registrar IANA ID: 292
   Registrar Abuse Contact Email: abusecomplaints@markmonitor.com
   Registrar Abuse Contact Phone: +1.2086851750
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
   Name Server: NS1.INFOSYS.COM
   Name Server: NS2.INFOSYS.COM
   DNSSEC: unsigned
   URL of the ICANN Whois Inaccuracy Complaint Form: https://www.icann.org/wicf/
>>> Last update of whois database: 2024-01-15T08:21:47Z <<<
`

func TestWhoisClient(t *testing.T) {
	var looked string
	client := NewWhoisClient(WhoisConfig{
		Lookup: func(ctx context.Context, domain string) (string, error) {
			looked = domain
			return sampleWhois, nil
		},
		Now: func() time.Time { return time.Date(2022, 4, 1, 4, 0, 0, 0, time.UTC) },
	})

	rec, err := client.Fetch(context.Background(), "Info Sys")
	require.NoError(t, err)
	assert.Equal(t, "infosys.com", looked)
	assert.Equal(t, "infosys.com", rec.Details["domain"])
	assert.Equal(t, 100.0, rec.Confidence)
	assert.InDelta(t, 30.0, rec.Details["age_years"], 0.05)
	assert.Equal(t, "MarkMonitor Inc.", rec.Details["registrar"])
}

func TestWhoisClientYoungDomain(t *testing.T) {
	client := NewWhoisClient(WhoisConfig{
		Lookup: func(context.Context, string) (string, error) { return sampleWhois, nil },
		Now:    func() time.Time { return time.Date(1992, 9, 30, 4, 0, 0, 0, time.UTC) },
	})
	rec, err := client.Fetch(context.Background(), "Infosys")
	require.NoError(t, err)
	// 182 days
	assert.InDelta(t, 49.86, rec.Confidence, 0.01)
	assert.InDelta(t, 0.5, rec.Details["age_years"], 0.001)
}

func TestWhoisClientFailures(t *testing.T) {
	client := NewWhoisClient(WhoisConfig{
		Lookup: func(context.Context, string) (string, error) { return "", errors.New("connection reset") },
	})
	_, err := client.Fetch(context.Background(), "Infosys")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain invalid")
	assert.True(t, errors.Is(err, signal.ErrSourceUnavailable))

	_, err = client.Fetch(context.Background(), "Acme.com Ltd")
	require.Error(t, err)
	assert.Equal(t, signal.ReasonInvalid, signal.ReasonOf(err))
}

func TestFetcherDelayHonoursContext(t *testing.T) {
	srv := pageServer(t, map[string]string{"/": "ok"})
	f := NewFetcher(HTTPConfig{Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.GetText(ctx, srv.URL+"/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseNamed(t *testing.T) {
	got := ParseNamed("Active NBFCs=https://rbi.example/list?Id=2009; broken ;=nourl; Micro = https://rbi.example/m")
	assert.Equal(t, []Named{
		{Name: "Active NBFCs", URL: "https://rbi.example/list?Id=2009"},
		{Name: "Micro", URL: "https://rbi.example/m"},
	}, got)
}
