package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"company-verify/internal/signal"
)

// DefaultUserAgent mimics a desktop browser; several registries reject bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const (
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 8 << 20
)

// HTTPConfig drives the shared page fetcher.
type HTTPConfig struct {
	UserAgent string
	Timeout   time.Duration
	// Delay is slept after every request to stay polite with upstream sites.
	Delay  time.Duration
	Client *http.Client
}

// Fetcher performs single-shot GET requests for page-scraping sources.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	delay      time.Duration
}

// NewFetcher constructs a fetcher, filling defaults.
func NewFetcher(cfg HTTPConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	}
	return &Fetcher{httpClient: client, userAgent: ua, delay: delay}
}

// GetText fetches url and returns the response body as text. Non-2xx responses
// are reported as errors.
func (f *Fetcher) GetText(ctx context.Context, url string) (string, error) {
	if f == nil {
		return "", errors.New("fetcher is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if err := f.pause(ctx); err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s returned status %d", req.URL.Host, resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
		"bytes":  len(body),
	}).Debug("page fetched")
	return string(body), nil
}

func (f *Fetcher) pause(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.delay):
		return nil
	}
}

// fetchFailure wraps err as a SourceUnavailableError, classifying deadlines as
// timeouts and caller cancellation as cancelled.
func fetchFailure(source signal.Source, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return signal.Unavailable(source, signal.ReasonTimeout, err)
	case errors.Is(err, context.Canceled):
		return signal.Unavailable(source, signal.ReasonCancelled, err)
	}
	return signal.Unavailable(source, signal.ReasonFetch, err)
}

// Named pairs a display name with a URL, e.g. one published list or one news site.
type Named struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ParseNamed parses "Name=URL" pairs separated by ';'. Malformed entries are skipped.
func ParseNamed(raw string) []Named {
	var out []Named
	for _, part := range strings.Split(raw, ";") {
		name, url, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if name == "" || url == "" {
			continue
		}
		out = append(out, Named{Name: name, URL: url})
	}
	return out
}

var errEmptyName = errors.New("company name is empty")
