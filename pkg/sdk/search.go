package memsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
)

// SearchOption tunes one query.
type SearchOption func(*searchParams)

type searchParams struct {
	limit     int
	offset    int
	threshold *float64
	expand    bool
}

// Limit sets the page size. Default 20, max 100.
func Limit(n int) SearchOption { return func(p *searchParams) { p.limit = n } }

// Offset skips the first n ranked hits.
func Offset(n int) SearchOption { return func(p *searchParams) { p.offset = n } }

// Threshold overrides the default similarity cut-off.
func Threshold(v float64) SearchOption { return func(p *searchParams) { p.threshold = &v } }

// Expand asks the configured Expander to enrich the query first.
func Expand() SearchOption { return func(p *searchParams) { p.expand = true } }

// SearchService runs similarity searches over a single owner's facts.
type SearchService struct {
	owner string
	svc   searchUseCase
	obs   *observer
}

// Query ranks the owner's facts against text and returns one page.
func (s *SearchService) Query(ctx context.Context, text string, opts ...SearchOption) (_ SearchPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe(ctx, "search", s.owner, start, err) }()

	var p searchParams
	for _, o := range opts {
		o(&p)
	}

	q, err := query.New(text, s.owner, p.threshold, p.limit, p.offset, p.expand)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w: %w", ErrInvalidQuery, err)
	}

	out, err := s.svc.Search(ctx, q)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}

	items := out.Page.Items()
	page := SearchPage{
		Hits:      make([]Hit, len(items)),
		Query:     out.EffectiveQuery,
		Expanded:  out.Expanded,
		Threshold: out.Threshold,
	}
	for i := range items {
		r := &items[i]
		page.Hits[i] = Hit{ID: r.ID(), Owner: r.Owner(), Text: r.Text(), Score: r.Score(), CreatedAt: r.CreatedAt()}
	}
	if next, ok := out.Page.NextCursor(); ok {
		page.NextOffset = &next
	}
	return page, nil
}
