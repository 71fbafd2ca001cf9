package sources

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Default environment-driven settings.
const (
	DefaultSourceTimeout = 20 * time.Second
	DefaultSourceDelay   = 2 * time.Second
)

// ConfigFromEnv reads source settings from the environment:
// SOURCE_TIMEOUT, SOURCE_DELAY, HTTP_USER_AGENT, MCA_BASE_URL, ZAUBA_BASE_URL,
// RBI_LIST_URLS and NEWS_SOURCES ("Name=URL;Name=URL"), SCAM_TERMS (comma separated),
// SCAM_TERMS_PATH (JSON file, wins over SCAM_TERMS) and SOURCE_CACHE_TTL.
func ConfigFromEnv() Config {
	cfg := Config{
		HTTP: HTTPConfig{
			UserAgent: strings.TrimSpace(os.Getenv("HTTP_USER_AGENT")),
			Timeout:   envDuration("SOURCE_TIMEOUT", DefaultSourceTimeout),
			Delay:     envDuration("SOURCE_DELAY", DefaultSourceDelay),
		},
		MCABaseURL:   strings.TrimSpace(os.Getenv("MCA_BASE_URL")),
		ZaubaBaseURL: strings.TrimSpace(os.Getenv("ZAUBA_BASE_URL")),
		RBILists:     ParseNamed(os.Getenv("RBI_LIST_URLS")),
		NewsSites:    ParseNamed(os.Getenv("NEWS_SOURCES")),
		CacheTTL:     envDuration("SOURCE_CACHE_TTL", 0),
	}
	cfg.WhoisTimeout = cfg.HTTP.Timeout
	if raw := strings.TrimSpace(os.Getenv("SCAM_TERMS")); raw != "" {
		for _, term := range strings.Split(raw, ",") {
			if term = strings.TrimSpace(term); term != "" {
				cfg.ScamTerms = append(cfg.ScamTerms, term)
			}
		}
	}
	if path := strings.TrimSpace(os.Getenv("SCAM_TERMS_PATH")); path != "" {
		terms, err := LoadScamTerms(path)
		if err != nil {
			logrus.WithError(err).Warn("load scam terms file")
		} else {
			cfg.ScamTerms = terms
		}
	}
	return cfg
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		logrus.WithField(key, raw).Warn("invalid duration, using default")
		return fallback
	}
	return d
}
