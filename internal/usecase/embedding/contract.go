package embedding

import (
	"context"

	domemb "github.com/kailas-cloud/memsearch/internal/domain/embedding"
)

// Store is the embedding cache this package reads through and writes to.
type Store interface {
	Get(ctx context.Context, text string) (domemb.Cached, error)
	GetMany(ctx context.Context, texts []string) (map[string]domemb.Cached, error)
	Put(ctx context.Context, text string, vector []float32, features []domemb.Feature) (domemb.Cached, error)
}
