// Package fact implements fact ingestion and lookup.
package fact

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/domain"
	dombatch "github.com/kailas-cloud/memsearch/internal/domain/batch"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	"github.com/kailas-cloud/memsearch/internal/logger"
)

// Import limits.
const (
	MaxImportSize   = 100
	DefaultPoolSize = 4
)

// Service adds and reads facts.
type Service struct {
	repo  Repository
	embed Embedder
	pool  *ants.Pool
	newID func() string
}

// New creates a fact service with an import pool of poolSize workers.
// Close releases the pool.
func New(repo Repository, embed Embedder, poolSize int) (*Service, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create import pool: %w", err)
	}
	return &Service{repo: repo, embed: embed, pool: pool, newID: uuid.NewString}, nil
}

// Close releases the import worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Add embeds text and stores it as a new fact of owner.
func (s *Service) Add(ctx context.Context, owner, text string) (domfact.Fact, error) {
	return s.add(ctx, owner, text, nil)
}

// add stores text with vec, embedding it first when vec is nil.
func (s *Service) add(ctx context.Context, owner, text string, vec []float32) (domfact.Fact, error) {
	if strings.TrimSpace(owner) == "" {
		return domfact.Fact{}, fmt.Errorf("%w: owner is required", domain.ErrInvalidQuery)
	}
	if err := domfact.ValidateText(text); err != nil {
		return domfact.Fact{}, err
	}

	if vec == nil {
		emb, err := s.embed.Embed(ctx, text)
		if err != nil {
			return domfact.Fact{}, fmt.Errorf("embed fact: %w", err)
		}
		vec = emb.Embedding
	}

	f, err := domfact.New(s.newID(), owner, text, vec)
	if err != nil {
		return domfact.Fact{}, err
	}
	if err := s.repo.Add(ctx, f); err != nil {
		return domfact.Fact{}, fmt.Errorf("add fact: %w", err)
	}

	logger.FromContext(ctx).Debug("Fact added",
		zap.String("owner", owner),
		zap.String("id", f.ID()),
	)
	return f, nil
}

// Get returns the owner's fact or domain.ErrFactNotFound.
func (s *Service) Get(ctx context.Context, owner, id string) (domfact.Fact, error) {
	f, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return domfact.Fact{}, fmt.Errorf("get fact: %w", err)
	}
	return f, nil
}

// Import adds texts concurrently. One result per input, in input order.
// Per-item failures are reported in the results, not as the error.
func (s *Service) Import(ctx context.Context, owner string, texts []string) ([]dombatch.Result, error) {
	if len(texts) == 0 {
		return []dombatch.Result{}, nil
	}
	if len(texts) > MaxImportSize {
		return nil, fmt.Errorf("%w: import size exceeds %d", domain.ErrInvalidQuery, MaxImportSize)
	}

	var cached map[string][]float32
	if l, ok := s.embed.(CacheLookup); ok {
		cached = l.Lookup(ctx, texts)
	}

	results := make([]dombatch.Result, len(texts))
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			f, err := s.add(ctx, owner, text, cached[text])
			if err != nil {
				results[i] = dombatch.NewError(i, err)
				return
			}
			results[i] = dombatch.NewOK(i, f.ID())
		})
		if err != nil {
			wg.Done()
			results[i] = dombatch.NewError(i, fmt.Errorf("submit import task: %w", err))
		}
	}
	wg.Wait()

	return results, nil
}
