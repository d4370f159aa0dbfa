package memsearch

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Expander enriches a raw query before embedding. Implementations must not
// fail: on any problem they return raw unchanged.
type Expander interface {
	Expand(ctx context.Context, raw, feature string) string
}
