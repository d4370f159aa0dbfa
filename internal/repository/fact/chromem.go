package fact

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	chromem "github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	"github.com/kailas-cloud/memsearch/internal/domain/search/result"
)

var errChromemClosed = errors.New("chromem fact store is closed")

// ChromemRepo stores facts in an embedded chromem-go database, one collection per owner.
type ChromemRepo struct {
	db     *chromem.DB
	closed atomic.Bool
}

// OpenChromem opens a persistent chromem database at path, or an in-memory one for an empty path.
func OpenChromem(path string) (*ChromemRepo, error) {
	if path == "" {
		return &ChromemRepo{db: chromem.NewDB()}, nil
	}
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, fmt.Errorf("open chromem: %w", err)
	}
	return &ChromemRepo{db: db}, nil
}

// Close stops further writes. A persistent database writes each document on
// Add, so there is nothing left to flush.
func (r *ChromemRepo) Close() error {
	r.closed.Store(true)
	return nil
}

func collectionName(owner string) string { return "facts_" + owner }

// EnsureIndex is a no-op: collections are created on first write.
func (r *ChromemRepo) EnsureIndex(context.Context) error { return nil }

// Add stores a fact in its owner's collection.
func (r *ChromemRepo) Add(ctx context.Context, f domfact.Fact) error {
	if r.closed.Load() {
		return errChromemClosed
	}
	// Embeddings are always supplied, so no embedding func is configured.
	col, err := r.db.GetOrCreateCollection(collectionName(f.Owner()), nil, nil)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}
	err = col.AddDocument(ctx, chromem.Document{
		ID:        f.ID(),
		Content:   f.Text(),
		Embedding: f.Vector(),
		Metadata: map[string]string{
			fieldOwner:     f.Owner(),
			fieldCreatedAt: strconv.FormatInt(f.CreatedAt().UnixMilli(), 10),
		},
	})
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Get returns the owner's fact or domain.ErrFactNotFound.
func (r *ChromemRepo) Get(ctx context.Context, owner, id string) (domfact.Fact, error) {
	col := r.db.GetCollection(collectionName(owner), nil)
	if col == nil {
		return domfact.Fact{}, domain.ErrFactNotFound
	}
	doc, err := col.GetByID(ctx, id)
	if err != nil {
		return domfact.Fact{}, domain.ErrFactNotFound
	}
	createdAt, _ := parseMillis(doc.Metadata[fieldCreatedAt])
	return domfact.Reconstruct(doc.ID, owner, doc.Content, doc.Embedding, createdAt), nil
}

// Candidates returns up to maxResults owner facts with similarity >= threshold, closest first.
func (r *ChromemRepo) Candidates(
	ctx context.Context, owner string, vector []float32, threshold float64, maxResults int,
) ([]result.Result, error) {
	if owner == "" || maxResults <= 0 {
		return nil, nil
	}
	col := r.db.GetCollection(collectionName(owner), nil)
	if col == nil {
		return nil, nil
	}

	// chromem rejects nResults above the collection size.
	n := min(maxResults, col.Count())
	if n == 0 {
		return nil, nil
	}

	hits, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		score := max(0, float64(h.Similarity))
		if score < threshold {
			continue
		}
		createdAt, _ := parseMillis(h.Metadata[fieldCreatedAt])
		out = append(out, result.New(h.ID, owner, h.Content, score, createdAt))
	}
	return out, nil
}
