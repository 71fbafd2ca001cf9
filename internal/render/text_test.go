package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company-verify/internal/signal"
	"company-verify/internal/verify"
)

func TestTextReport(t *testing.T) {
	report := verify.Aggregate("Acme Widgets Pvt Ltd", []signal.Record{
		signal.OK(signal.RegistryA, 90, map[string]any{"status": "REGISTERED"}),
		signal.OK(signal.RegistryB, 30, map[string]any{"status": "UNKNOWN", "detail": "Live check restricted"}),
		signal.OK(signal.RegulatorList, 70, map[string]any{"is_registered": false}),
		signal.OK(signal.TradeHistory, 80, map[string]any{"has_trade_history": true}),
		signal.Failed(signal.DomainRecord, errors.New("domain invalid")),
		signal.OK(signal.News, 100, map[string]any{"scam_reports": []string{}}),
	})

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "Verdict: NEEDS REVIEW\n")
	assert.Contains(t, out, "Composite score: 60.0 / 100\n")
	assert.Contains(t, out, "MSME (registry-b)\n  Confidence: 30\n  Detail: Live check restricted\n  Status: UNKNOWN\n")
	assert.Contains(t, out, "WHOIS (domain-record)\n  Error: domain invalid\n")
	assert.Contains(t, out, "  Is Registered: no\n")
	assert.Contains(t, out, "  Has Trade History: yes\n")
	assert.Contains(t, out, "  Scam Reports: none\n")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"x", "x"},
		{true, "yes"},
		{12.5, "12.5"},
		{3, "3"},
		{[]string{"a", "b"}, "a, b"},
		{[]any{}, "none"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatValue(tc.in), "%#v", tc.in)
	}
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, "Age Years", TitleKey("age_years"))
	assert.Equal(t, "Registrar", TitleKey("registrar"))
}
