package search

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	domemb "github.com/kailas-cloud/memsearch/internal/domain/embedding"
	"github.com/kailas-cloud/memsearch/internal/domain/search/page"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	"github.com/kailas-cloud/memsearch/internal/domain/search/result"
	"github.com/kailas-cloud/memsearch/internal/logger"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

// Default similarity thresholds per mode.
const (
	DefaultThreshold         = 0.4
	DefaultExpandedThreshold = 0.3
)

// Config holds pipeline thresholds.
type Config struct {
	Threshold         float64
	ExpandedThreshold float64
}

// Outcome is a search page plus what the pipeline actually ran.
type Outcome struct {
	Page           page.Page[result.Result]
	EffectiveQuery string
	Expanded       bool
	Threshold      float64
}

// Service runs expand -> embed -> rank for one query.
type Service struct {
	engine   *Engine
	embed    Embedder
	expander Expander
	cfg      Config
}

// New creates a search service. expander can be nil, which disables expansion.
func New(engine *Engine, embed Embedder, expander Expander, cfg Config) *Service {
	return &Service{engine: engine, embed: embed, expander: expander, cfg: cfg}
}

// Search executes the pipeline. Expansion never fails the request;
// embedding and store failures do.
func (s *Service) Search(ctx context.Context, q query.Query) (Outcome, error) {
	expanded := q.Expand() && s.expander != nil
	if expanded {
		q = q.WithExpanded(s.expander.Expand(ctx, q.Raw(), string(domemb.FeatureSearchQuery)))
	}

	threshold := s.cfg.Threshold
	if expanded {
		threshold = s.cfg.ExpandedThreshold
	}
	if t, ok := q.Threshold(); ok {
		threshold = t
	}

	out, err := s.run(ctx, q, threshold)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(strconv.FormatBool(expanded), status).Inc()
	if err != nil {
		return Outcome{}, err
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("owner", q.Owner()),
		zap.Bool("expanded", expanded),
		zap.Float64("threshold", threshold),
		zap.Int("items", len(out.Items())),
	)

	return Outcome{
		Page:           out,
		EffectiveQuery: q.Effective(),
		Expanded:       expanded,
		Threshold:      threshold,
	}, nil
}

func (s *Service) run(ctx context.Context, q query.Query, threshold float64) (page.Page[result.Result], error) {
	emb, err := s.embed.Embed(ctx, q.Effective())
	if err != nil {
		return page.Page[result.Result]{}, fmt.Errorf("embed query: %w", err)
	}

	out, err := s.engine.Search(ctx, q.Owner(), emb.Embedding, Options{
		Threshold: threshold,
		Limit:     q.Limit(),
		Offset:    q.Offset(),
	})
	if err != nil {
		return page.Page[result.Result]{}, err
	}
	return out, nil
}
