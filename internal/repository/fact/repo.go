package fact

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/memsearch/internal/db"
	"github.com/kailas-cloud/memsearch/internal/domain"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	"github.com/kailas-cloud/memsearch/internal/domain/search/result"
)

// store is the consumer interface for facts (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchRange(ctx context.Context, q *db.RangeQuery) (*db.SearchResult, error)
}

// HNSWConfig holds HNSW index parameters; zero values use server defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores facts as Redis hashes indexed by the Query Engine.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a Redis-backed fact repository.
func New(s store, vectorDim int, hnsw HNSWConfig) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: hnsw}
}

// EnsureIndex creates the fact index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check fact index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(IndexName).
		Prefix(keyPrefix).
		Tag(fieldOwner).
		Numeric(fieldCreatedAt).
		Vector(fieldVector, r.vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build fact index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create fact index: %w", err)
	}
	return nil
}

// Add stores a fact.
func (r *Repo) Add(ctx context.Context, f domfact.Fact) error {
	if err := r.store.HSet(ctx, factKey(f.ID()), factToHash(f)); err != nil {
		return fmt.Errorf("store fact: %w", err)
	}
	return nil
}

// Get returns the owner's fact or domain.ErrFactNotFound.
func (r *Repo) Get(ctx context.Context, owner, id string) (domfact.Fact, error) {
	m, err := r.store.HGetAll(ctx, factKey(id))
	if err != nil {
		return domfact.Fact{}, fmt.Errorf("get fact: %w", err)
	}
	if len(m) == 0 || m[fieldOwner] != owner {
		return domfact.Fact{}, domain.ErrFactNotFound
	}
	f, err := factFromHash(id, m)
	if err != nil {
		return domfact.Fact{}, fmt.Errorf("decode fact: %w", err)
	}
	return f, nil
}

// Candidates returns up to maxResults owner facts with similarity >= threshold, closest first.
func (r *Repo) Candidates(
	ctx context.Context, owner string, vector []float32, threshold float64, maxResults int,
) ([]result.Result, error) {
	if owner == "" || maxResults <= 0 {
		return nil, nil
	}

	res, err := r.store.SearchRange(ctx, &db.RangeQuery{
		IndexName:    IndexName,
		VectorField:  fieldVector,
		Vector:       vector,
		Radius:       radiusFor(threshold),
		Tags:         []db.TagMatch{{Field: fieldOwner, Value: owner}},
		Limit:        maxResults,
		ReturnFields: []string{fieldOwner, fieldText, fieldCreatedAt},
	})
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}

	out := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		createdAt, _ := parseMillis(e.Fields[fieldCreatedAt])
		out = append(out, result.New(idFromKey(e.Key), e.Fields[fieldOwner], e.Fields[fieldText], e.Score, createdAt))
	}
	return out, nil
}
