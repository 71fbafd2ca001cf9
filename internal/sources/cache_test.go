package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company-verify/internal/signal"
)

type countingSource struct {
	calls int
	fail  bool
}

func (c *countingSource) Source() signal.Source { return signal.TradeHistory }

func (c *countingSource) Fetch(context.Context, string) (signal.Record, error) {
	c.calls++
	if c.fail {
		return signal.Record{}, errors.New("upstream down")
	}
	return signal.OK(signal.TradeHistory, 80, map[string]any{"has_trade_history": true}), nil
}

func TestWithCache(t *testing.T) {
	inner := &countingSource{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := WithCache(inner, time.Hour).(*cachedSource)
	src.now = func() time.Time { return now }

	ctx := context.Background()
	for _, name := range []string{"Acme Ltd", "  Acme   Ltd "} {
		rec, err := src.Fetch(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, 80.0, rec.Confidence)
	}
	assert.Equal(t, 1, inner.calls)

	// Sources query with the name's case, so a different case is a different lookup.
	_, err := src.Fetch(ctx, "ACME LTD")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	now = now.Add(2 * time.Hour)
	_, err = src.Fetch(ctx, "Acme Ltd")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, signal.TradeHistory, src.Source())
}

func TestWithCacheSkipsFailures(t *testing.T) {
	inner := &countingSource{fail: true}
	src := WithCache(inner, time.Hour)
	for i := 0; i < 2; i++ {
		_, err := src.Fetch(context.Background(), "Acme")
		assert.Error(t, err)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestWithCacheDisabled(t *testing.T) {
	inner := &countingSource{}
	assert.Same(t, inner, WithCache(inner, 0))
}

func TestLoadScamTerms(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{"list", `["Scam", "fraud", "scam "]`, []string{"fraud", "scam"}, false},
		{"grouped", `{"fraud": ["Ponzi", "fraud"], "misc": ["scam"]}`, []string{"fraud", "ponzi", "scam"}, false},
		{"empty", `[]`, nil, true},
		{"garbage", `not json`, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))
			got, err := LoadScamTerms(path)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := LoadScamTerms(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSetAllIsCanonical(t *testing.T) {
	set := New(Config{CacheTTL: time.Minute})
	all := set.All()
	require.Len(t, all, len(signal.Sources))
	for i, src := range all {
		assert.Equal(t, signal.Sources[i], src.Source())
		_, cached := src.(*cachedSource)
		assert.True(t, cached)
	}
	for _, src := range New(Config{}).All() {
		_, cached := src.(*cachedSource)
		assert.False(t, cached)
	}
}

func TestSourceBudget(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want time.Duration
	}{
		{"default lists", Config{HTTP: HTTPConfig{Timeout: 20 * time.Second, Delay: 2 * time.Second}}, 44 * time.Second},
		{"no delay", Config{HTTP: HTTPConfig{Timeout: 10 * time.Second}}, 20 * time.Second},
		{"three news sites", Config{
			HTTP:      HTTPConfig{Timeout: 5 * time.Second, Delay: time.Second},
			NewsSites: []Named{{Name: "a", URL: "x"}, {Name: "b", URL: "y"}, {Name: "c", URL: "z"}},
		}, 18 * time.Second},
		{"whois dominates", Config{HTTP: HTTPConfig{Timeout: time.Second}, WhoisTimeout: time.Minute}, time.Minute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.SourceBudget())
		})
	}
}

func TestFetchFailureReasons(t *testing.T) {
	tests := []struct {
		err  error
		want signal.Reason
	}{
		{context.DeadlineExceeded, signal.ReasonTimeout},
		{context.Canceled, signal.ReasonCancelled},
		{errors.New("connection refused"), signal.ReasonFetch},
	}
	for _, tc := range tests {
		err := fetchFailure(signal.News, tc.err)
		assert.Equal(t, tc.want, signal.ReasonOf(err), tc.err.Error())
		assert.ErrorIs(t, err, signal.ErrSourceUnavailable)
	}
}
