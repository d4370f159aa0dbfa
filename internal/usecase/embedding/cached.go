// Package embedding provides the embed-with-cache glue between the provider and the cache store.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domemb "github.com/kailas-cloud/memsearch/internal/domain/embedding"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

// CachedEmbedder looks text up in the cache store and falls back to the provider.
// Cache failures degrade to recompute and are never returned.
type CachedEmbedder struct {
	inner        domain.Embedder
	store        Store
	feature      domemb.Feature
	dimensions   int
	storeTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a CachedEmbedder.
type Option func(*CachedEmbedder)

// WithDimensions enables the vector length check on provider output.
func WithDimensions(n int) Option {
	return func(c *CachedEmbedder) { c.dimensions = n }
}

// WithStoreTimeout bounds each cache read and write.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *CachedEmbedder) { c.storeTimeout = d }
}

// NewCached wraps inner with a cache tagged by feature.
func NewCached(
	inner domain.Embedder, store Store, feature domemb.Feature, logger *zap.Logger, opts ...Option,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CachedEmbedder{inner: inner, store: store, feature: feature, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Embed returns the cached vector for text or embeds and stores it.
// Cache hit: TotalTokens = 0.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	usage := domain.UsageFromContext(ctx)

	if vec, ok := c.lookup(ctx, text); ok {
		c.incCache("hit")
		usage.RecordCache(true)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.incCache("miss")
	usage.RecordCache(false)

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	if err = res.CheckDimensions(c.dimensions); err != nil {
		return domain.EmbeddingResult{}, err
	}
	usage.AddTokens(res.TotalTokens)

	if stored, ok := c.write(ctx, text, res.Embedding); ok {
		res.Embedding = stored
	}
	return res, nil
}

// Lookup resolves many texts from the cache in one store round-trip and
// returns only the hits. Read failures are logged and yield no hits.
func (c *CachedEmbedder) Lookup(ctx context.Context, texts []string) map[string][]float32 {
	out := map[string][]float32{}
	if len(texts) == 0 {
		return out
	}

	sctx, cancel := c.storeContext(ctx)
	defer cancel()

	rows, err := c.store.GetMany(sctx, texts)
	if err != nil {
		c.incCache("error")
		c.logger.Warn("Embedding cache bulk read failed",
			zap.String("feature", string(c.feature)),
			zap.Int("texts", len(texts)),
			zap.Error(err),
		)
		return out
	}

	usage := domain.UsageFromContext(ctx)
	for text, row := range rows {
		if c.dimensions > 0 && len(row.Vector()) != c.dimensions {
			continue
		}
		c.incCache("hit")
		usage.RecordCache(true)
		out[text] = row.Vector()
	}
	return out
}

func (c *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	cached, err := c.store.Get(ctx, text)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		c.incCache("error")
		c.logger.Warn("Embedding cache read failed, recomputing",
			zap.String("feature", string(c.feature)),
			zap.Error(err),
		)
		return nil, false
	}
	if c.dimensions > 0 && len(cached.Vector()) != c.dimensions {
		c.logger.Warn("Cached embedding has wrong dimensions, recomputing",
			zap.String("id", cached.ID()),
			zap.Int("got", len(cached.Vector())),
			zap.Int("want", c.dimensions),
		)
		return nil, false
	}
	return cached.Vector(), true
}

// write stores vec and returns the vector the cache holds for text afterwards.
// A concurrent writer may have won the insert; its row is returned then.
func (c *CachedEmbedder) write(ctx context.Context, text string, vec []float32) ([]float32, bool) {
	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	stored, err := c.store.Put(ctx, text, vec, []domemb.Feature{c.feature})
	if err != nil {
		metrics.EmbeddingCacheWriteErrorsTotal.WithLabelValues(string(c.feature)).Inc()
		c.logger.Warn("Embedding cache write failed",
			zap.String("feature", string(c.feature)),
			zap.Error(err),
		)
		return nil, false
	}
	if len(stored.Vector()) != len(vec) {
		c.logger.Warn("Stored embedding has wrong dimensions, keeping computed vector",
			zap.String("id", stored.ID()),
			zap.Int("got", len(stored.Vector())),
			zap.Int("want", len(vec)),
		)
		return nil, false
	}
	return stored.Vector(), true
}

func (c *CachedEmbedder) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.storeTimeout)
}

func (c *CachedEmbedder) incCache(result string) {
	metrics.EmbeddingCacheTotal.WithLabelValues(string(c.feature), result).Inc()
}
