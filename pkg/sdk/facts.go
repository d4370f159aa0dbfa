package memsearch

import (
	"context"
	"fmt"
	"time"

	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
)

// FactService manages the facts of a single owner.
type FactService struct {
	owner string
	svc   factUseCase
	obs   *observer
}

// Add embeds and stores text as a new fact.
func (s *FactService) Add(ctx context.Context, text string) (_ Fact, err error) {
	start := time.Now()
	defer func() { s.obs.observe(ctx, "fact_add", s.owner, start, err) }()

	f, err := s.svc.Add(ctx, s.owner, text)
	if err != nil {
		return Fact{}, fmt.Errorf("add fact: %w", err)
	}
	return fromInternalFact(f), nil
}

// Get retrieves a fact by ID.
func (s *FactService) Get(ctx context.Context, id string) (_ Fact, err error) {
	start := time.Now()
	defer func() { s.obs.observe(ctx, "fact_get", s.owner, start, err) }()

	f, err := s.svc.Get(ctx, s.owner, id)
	if err != nil {
		return Fact{}, fmt.Errorf("get fact: %w", err)
	}
	return fromInternalFact(f), nil
}

// Import adds texts concurrently and reports one result per input, in input order.
// Per-item failures are reported in the results; err is set only when the
// whole request is rejected.
func (s *FactService) Import(ctx context.Context, texts []string) (_ []ImportResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe(ctx, "fact_import", s.owner, start, err) }()

	results, err := s.svc.Import(ctx, s.owner, texts)
	if err != nil {
		return nil, fmt.Errorf("import facts: %w", err)
	}
	out := make([]ImportResult, len(results))
	for i, r := range results {
		out[i] = ImportResult{Index: r.Index(), ID: r.ID(), Err: r.Err()}
	}
	return out, nil
}

func fromInternalFact(f domfact.Fact) Fact {
	return Fact{ID: f.ID(), Owner: f.Owner(), Text: f.Text(), CreatedAt: f.CreatedAt()}
}
