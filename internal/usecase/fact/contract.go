package fact

import (
	"context"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
)

// Repository persists facts.
type Repository interface {
	Add(ctx context.Context, f domfact.Fact) error
	Get(ctx context.Context, owner, id string) (domfact.Fact, error)
}

// Embedder vectorizes fact text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CacheLookup is implemented by embedders that resolve many texts from
// their cache at once. Import uses it to skip per-item cache reads.
type CacheLookup interface {
	Lookup(ctx context.Context, texts []string) map[string][]float32
}
