package search

import (
	"context"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/domain/search/result"
)

// CandidateSource returns owner-scoped facts with similarity >= threshold.
// Order is not relied upon.
type CandidateSource interface {
	Candidates(
		ctx context.Context, owner string, vector []float32, threshold float64, maxResults int,
	) ([]result.Result, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Expander enriches raw query text. It never fails.
type Expander interface {
	Expand(ctx context.Context, raw, feature string) string
}
