package sources

import (
	"context"
	"strings"
	"sync"
	"time"

	"company-verify/internal/signal"
	"company-verify/internal/verify"
)

// cachedSource remembers successful records per company for a fixed TTL.
// Failures are never cached so a flaky upstream is retried next time. Keys only
// collapse whitespace: sources build case-sensitive queries and slugs.
type cachedSource struct {
	inner verify.Source
	ttl   time.Duration
	now   func() time.Time
	cache sync.Map // map[string]cacheEntry
}

type cacheEntry struct {
	at     time.Time
	record signal.Record
}

// WithCache wraps src with a per-company TTL cache. A non-positive ttl returns src unchanged.
func WithCache(src verify.Source, ttl time.Duration) verify.Source {
	if src == nil || ttl <= 0 {
		return src
	}
	return &cachedSource{inner: src, ttl: ttl, now: time.Now}
}

func (c *cachedSource) Source() signal.Source { return c.inner.Source() }

func (c *cachedSource) Fetch(ctx context.Context, companyName string) (signal.Record, error) {
	key := strings.Join(strings.Fields(companyName), " ")
	if entry, ok := c.cache.Load(key); ok {
		cached := entry.(cacheEntry)
		if c.now().Sub(cached.at) < c.ttl {
			return cached.record.Clone(), nil
		}
		c.cache.Delete(key)
	}

	rec, err := c.inner.Fetch(ctx, companyName)
	if err != nil || rec.Failed() {
		return rec, err
	}
	c.cache.Store(key, cacheEntry{at: c.now(), record: rec.Clone()})
	return rec, nil
}
