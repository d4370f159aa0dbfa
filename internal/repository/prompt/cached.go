package prompt

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

// backend is the persistent prompt store behind the cache.
type backend interface {
	Latest(ctx context.Context, feature string) (domprompt.Prompt, error)
	Save(ctx context.Context, p domprompt.Prompt) error
}

// CachedRepo fronts Latest with a TTL cache. Misses (including not-found) are not cached.
type CachedRepo struct {
	inner backend
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCached wraps inner with a ristretto cache of the given TTL.
func NewCached(inner backend, ttl time.Duration) (*CachedRepo, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1_000,
		MaxCost:     1 << 20, // bytes of prompt text
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create prompt cache: %w", err)
	}
	return &CachedRepo{inner: inner, cache: cache, ttl: ttl}, nil
}

// Latest returns the cached prompt or loads it from the backend.
func (c *CachedRepo) Latest(ctx context.Context, feature string) (domprompt.Prompt, error) {
	if v, ok := c.cache.Get(feature); ok {
		if p, ok := v.(domprompt.Prompt); ok {
			metrics.PromptCacheTotal.WithLabelValues("hit").Inc()
			return p, nil
		}
	}
	metrics.PromptCacheTotal.WithLabelValues("miss").Inc()

	p, err := c.inner.Latest(ctx, feature)
	if err != nil {
		return domprompt.Prompt{}, err //nolint:wrapcheck // backend errors are already wrapped
	}
	c.cache.SetWithTTL(feature, p, int64(len(p.Text())), c.ttl)
	return p, nil
}

// Save stores a new version and drops the cached one.
func (c *CachedRepo) Save(ctx context.Context, p domprompt.Prompt) error {
	if err := c.inner.Save(ctx, p); err != nil {
		return err //nolint:wrapcheck // backend errors are already wrapped
	}
	c.cache.Del(p.Feature())
	return nil
}

// Wait blocks until buffered cache writes are applied.
func (c *CachedRepo) Wait() { c.cache.Wait() }

// Close stops the cache goroutines.
func (c *CachedRepo) Close() { c.cache.Close() }
