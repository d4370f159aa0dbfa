package domain

import (
	"context"
	"fmt"
)

// KeyPrefix namespaces every key this service writes to the shared store.
const KeyPrefix = "memsearch:"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CheckDimensions returns ErrVectorDimMismatch when want > 0 and the vector length differs.
func (r EmbeddingResult) CheckDimensions(want int) error {
	if want > 0 && len(r.Embedding) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorDimMismatch, len(r.Embedding), want)
	}
	return nil
}
