package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding token usage and cache outcomes for one request.
// The transport puts a mutable pointer into the context before calling the pipeline;
// the cached embedder writes to it; the transport reads it for response headers
// once the pipeline has returned. Writers may run concurrently (bulk import).
type EmbeddingUsage struct {
	mu          sync.Mutex
	TotalTokens int
	CacheHits   int
	CacheMisses int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.TotalTokens += n
	u.mu.Unlock()
}

// RecordCache counts a cache hit or miss.
func (u *EmbeddingUsage) RecordCache(hit bool) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if hit {
		u.CacheHits++
		return
	}
	u.CacheMisses++
}
