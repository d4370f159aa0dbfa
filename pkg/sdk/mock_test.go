package memsearch

import (
	"context"
	"sync/atomic"

	dombatch "github.com/kailas-cloud/memsearch/internal/domain/batch"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/memsearch/internal/usecase/search"
)

// --- factUseCase mock ---

type mockFactUC struct {
	addFn    func(ctx context.Context, owner, text string) (domfact.Fact, error)
	getFn    func(ctx context.Context, owner, id string) (domfact.Fact, error)
	importFn func(ctx context.Context, owner string, texts []string) ([]dombatch.Result, error)
}

func (m *mockFactUC) Add(ctx context.Context, owner, text string) (domfact.Fact, error) {
	return m.addFn(ctx, owner, text)
}

func (m *mockFactUC) Get(ctx context.Context, owner, id string) (domfact.Fact, error) {
	return m.getFn(ctx, owner, id)
}

func (m *mockFactUC) Import(ctx context.Context, owner string, texts []string) ([]dombatch.Result, error) {
	return m.importFn(ctx, owner, texts)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, q query.Query) (searchuc.Outcome, error)
}

func (m *mockSearchUC) Search(ctx context.Context, q query.Query) (searchuc.Outcome, error) {
	return m.searchFn(ctx, q)
}

// --- Embedder fakes ---

// axisEmbedder maps text to a fixed vector; unknown text gets the first axis.
type axisEmbedder struct {
	vectors map[string][]float32
	calls   atomic.Int32
}

func (e *axisEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls.Add(1)
	if v, ok := e.vectors[text]; ok {
		return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}
	return EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 1}, nil
}

type suffixExpander struct{ suffix string }

func (e suffixExpander) Expand(_ context.Context, raw, _ string) string {
	return raw + ", " + e.suffix
}
