package embcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/domain/embedding"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	HSetIfAbsent(ctx context.Context, key string, fields map[string]string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo stores cached embeddings as Redis hashes keyed by sha256(text).
type Repo struct {
	store store
}

// New creates a Redis-backed embedding cache repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get returns the cached embedding for the exact text or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, text string) (embedding.Cached, error) {
	m, err := r.store.HGetAll(ctx, cacheKey(text))
	if err != nil {
		return embedding.Cached{}, fmt.Errorf("get cached embedding: %w", err)
	}
	c, ok, err := cachedFromHash(m, text)
	if err != nil {
		return embedding.Cached{}, fmt.Errorf("decode cached embedding: %w", err)
	}
	if !ok {
		return embedding.Cached{}, domain.ErrNotFound
	}
	return c, nil
}

// GetMany looks up all texts in one pipelined round-trip.
// Only found entries are present in the result.
func (r *Repo) GetMany(ctx context.Context, texts []string) (map[string]embedding.Cached, error) {
	uniq := dedupe(texts)
	if len(uniq) == 0 {
		return map[string]embedding.Cached{}, nil
	}

	keys := make([]string, len(uniq))
	for i, t := range uniq {
		keys[i] = cacheKey(t)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get cached embeddings: %w", err)
	}

	out := make(map[string]embedding.Cached, len(rows))
	for i, m := range rows {
		if i >= len(uniq) {
			break
		}
		c, ok, err := cachedFromHash(m, uniq[i])
		if err != nil {
			return nil, fmt.Errorf("decode cached embedding: %w", err)
		}
		if ok {
			out[uniq[i]] = c
		}
	}
	return out, nil
}

// Put inserts the embedding unless a row for text already exists, in which
// case the stored row is returned unchanged.
func (r *Repo) Put(
	ctx context.Context, text string, vector []float32, features []embedding.Feature,
) (embedding.Cached, error) {
	c := embedding.New(uuid.NewString(), text, vector, features)

	written, err := r.store.HSetIfAbsent(ctx, cacheKey(text), cachedToHash(c))
	if err != nil {
		return embedding.Cached{}, fmt.Errorf("put cached embedding: %w", err)
	}
	if written {
		return c, nil
	}

	existing, err := r.Get(ctx, text)
	if errors.Is(err, domain.ErrNotFound) {
		return embedding.Cached{}, fmt.Errorf("put cached embedding: key %s holds a different text", cacheKey(text))
	}
	if err != nil {
		return embedding.Cached{}, err
	}
	return existing, nil
}

func dedupe(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
