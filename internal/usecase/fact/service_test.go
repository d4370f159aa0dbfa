package fact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/memsearch/internal/domain"
	dombatch "github.com/kailas-cloud/memsearch/internal/domain/batch"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
)

// --- Mocks ---

type mockRepo struct {
	mu    sync.Mutex
	facts map[string]domfact.Fact
	err   error
}

func newMockRepo() *mockRepo { return &mockRepo{facts: map[string]domfact.Fact{}} }

func (m *mockRepo) Add(_ context.Context, f domfact.Fact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.facts[f.ID()] = f
	return nil
}

func (m *mockRepo) Get(_ context.Context, owner, id string) (domfact.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[id]
	if !ok || f.Owner() != owner {
		return domfact.Fact{}, domain.ErrFactNotFound
	}
	return f, nil
}

type mockEmbedder struct {
	calls atomic.Int32
	fn    func(text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.fn != nil {
		return m.fn(text)
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}}, nil
}

func newService(t *testing.T, repo Repository, emb Embedder) *Service {
	t.Helper()
	svc, err := New(repo, emb, 2)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	var n atomic.Int32
	svc.newID = func() string { return fmt.Sprintf("f%d", n.Add(1)) }
	return svc
}

// --- Tests ---

func TestAdd_StoresEmbeddedFact(t *testing.T) {
	repo := newMockRepo()
	svc := newService(t, repo, &mockEmbedder{})

	f, err := svc.Add(context.Background(), "alice", "likes green tea")
	require.NoError(t, err)
	assert.Equal(t, "alice", f.Owner())
	assert.Equal(t, []float32{15}, f.Vector())

	got, err := svc.Get(context.Background(), "alice", f.ID())
	require.NoError(t, err)
	assert.Equal(t, "likes green tea", got.Text())
}

func TestAdd_ValidatesBeforeEmbedding(t *testing.T) {
	emb := &mockEmbedder{}
	svc := newService(t, newMockRepo(), emb)

	_, err := svc.Add(context.Background(), "", "text")
	require.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = svc.Add(context.Background(), "alice", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = svc.Add(context.Background(), "alice", strings.Repeat("x", domfact.MaxTextLength+1))
	require.ErrorIs(t, err, domain.ErrInvalidQuery)

	assert.Zero(t, emb.calls.Load())
}

func TestAdd_EmbedError(t *testing.T) {
	emb := &mockEmbedder{fn: func(string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}}
	repo := newMockRepo()
	svc := newService(t, repo, emb)

	_, err := svc.Add(context.Background(), "alice", "x")
	require.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
	assert.Empty(t, repo.facts)
}

func TestGet_OtherOwnerNotFound(t *testing.T) {
	svc := newService(t, newMockRepo(), &mockEmbedder{})
	f, err := svc.Add(context.Background(), "alice", "x")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "bob", f.ID())
	require.ErrorIs(t, err, domain.ErrFactNotFound)
}

func TestImport_OneResultPerInputInOrder(t *testing.T) {
	emb := &mockEmbedder{fn: func(text string) (domain.EmbeddingResult, error) {
		if text == "bad" {
			return domain.EmbeddingResult{}, errors.New("provider down")
		}
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	}}
	repo := newMockRepo()
	svc := newService(t, repo, emb)

	texts := []string{"a", "bad", "c", "", "e"}
	results, err := svc.Import(context.Background(), "alice", texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))

	want := []dombatch.ItemStatus{
		dombatch.StatusOK, dombatch.StatusError, dombatch.StatusOK, dombatch.StatusError, dombatch.StatusOK,
	}
	for i, r := range results {
		assert.Equal(t, i, r.Index())
		assert.Equal(t, want[i], r.Status(), "item %d", i)
		if r.Status() == dombatch.StatusOK {
			f, ok := repo.facts[r.ID()]
			require.True(t, ok)
			assert.Equal(t, texts[i], f.Text())
		}
	}
	require.ErrorIs(t, results[3].Err(), domain.ErrInvalidQuery)
	assert.Len(t, repo.facts, 3)
}

func TestImport_TooMany(t *testing.T) {
	svc := newService(t, newMockRepo(), &mockEmbedder{})
	_, err := svc.Import(context.Background(), "alice", make([]string, MaxImportSize+1))
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestImport_Empty(t *testing.T) {
	svc := newService(t, newMockRepo(), &mockEmbedder{})
	results, err := svc.Import(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type lookupEmbedder struct {
	mockEmbedder
	hits    map[string][]float32
	lookups atomic.Int32
}

func (l *lookupEmbedder) Lookup(_ context.Context, texts []string) map[string][]float32 {
	l.lookups.Add(1)
	out := map[string][]float32{}
	for _, t := range texts {
		if v, ok := l.hits[t]; ok {
			out[t] = v
		}
	}
	return out
}

func TestImport_UsesBulkCacheLookup(t *testing.T) {
	emb := &lookupEmbedder{hits: map[string][]float32{"cached": {9}}}
	repo := newMockRepo()
	svc := newService(t, repo, emb)

	results, err := svc.Import(context.Background(), "alice", []string{"cached", "fresh", "cached"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, int32(1), emb.lookups.Load())
	assert.Equal(t, int32(1), emb.calls.Load())
	for i, r := range results {
		require.Equal(t, dombatch.StatusOK, r.Status(), "item %d", i)
	}
	assert.Equal(t, []float32{9}, repo.facts[results[0].ID()].Vector())
	assert.Equal(t, []float32{9}, repo.facts[results[2].ID()].Vector())
	assert.Equal(t, []float32{5}, repo.facts[results[1].ID()].Vector())
}
