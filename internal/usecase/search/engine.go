package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/memsearch/internal/domain/search/page"
	"github.com/kailas-cloud/memsearch/internal/domain/search/result"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

// DefaultMaxCandidates caps how many hits are pulled from the source per search.
const DefaultMaxCandidates = 1000

// Options controls one similarity search.
type Options struct {
	// Threshold is the minimum similarity. Zero disables filtering.
	Threshold float64
	Limit     int
	Offset    int
}

// Engine ranks and paginates owner-scoped candidates.
type Engine struct {
	source        CandidateSource
	maxCandidates int
	timeout       time.Duration
}

// NewEngine creates an engine. maxCandidates <= 0 uses DefaultMaxCandidates.
func NewEngine(source CandidateSource, maxCandidates int) *Engine {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Engine{source: source, maxCandidates: maxCandidates}
}

// WithTimeout bounds each candidate fetch.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	e.timeout = d
	return e
}

// Search returns the window [offset, offset+limit) of candidates with
// score >= threshold, ordered by score desc then id asc.
// An empty owner yields an empty page without a cursor.
//
// At most max(maxCandidates, offset+limit) results are ranked. When the
// source has more, results tied on score at that cap are left out so that
// repeated searches return the same set.
func (e *Engine) Search(
	ctx context.Context, owner string, vector []float32, opts Options,
) (page.Page[result.Result], error) {
	offset := max(opts.Offset, 0)
	if owner == "" {
		return page.New[result.Result](nil, offset, 0), nil
	}

	want := max(e.maxCandidates, offset+opts.Limit)
	candidates, err := e.fetch(ctx, owner, vector, opts.Threshold, want+1)
	if err != nil {
		return page.Page[result.Result]{}, fmt.Errorf("fetch candidates: %w", err)
	}

	truncated := len(candidates) > want
	ranked := Rank(candidates, opts.Threshold)
	if truncated {
		ranked = aboveCutoff(ranked, want)
	}
	metrics.SearchCandidates.Observe(float64(len(ranked)))

	return page.New(window(ranked, offset, opts.Limit), offset, opts.Limit), nil
}

func (e *Engine) fetch(
	ctx context.Context, owner string, vector []float32, threshold float64, n int,
) ([]result.Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.source.Candidates(ctx, owner, vector, threshold, n) //nolint:wrapcheck // wrapped by Search
}

// Rank drops results below threshold and sorts the rest by score desc, id asc.
// The input slice is reused.
func Rank(rs []result.Result, threshold float64) []result.Result {
	kept := rs[:0]
	for _, r := range rs {
		if r.Score() >= threshold {
			kept = append(kept, r)
		}
	}
	slices.SortFunc(kept, func(a, b result.Result) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return kept
}

// aboveCutoff keeps the results scoring strictly above the score at position
// want. The source truncates ties at its cap in no fixed order, so the tie
// group at the cap is dropped whole.
func aboveCutoff(ranked []result.Result, want int) []result.Result {
	if len(ranked) <= want {
		return ranked
	}
	cut := ranked[want].Score()
	n := want
	for n > 0 && ranked[n-1].Score() <= cut {
		n--
	}
	return ranked[:n]
}

func window(rs []result.Result, offset, limit int) []result.Result {
	if limit <= 0 || offset >= len(rs) {
		return []result.Result{}
	}
	end := min(offset+limit, len(rs))
	return rs[offset:end]
}
