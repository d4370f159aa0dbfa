package memsearch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/memsearch/internal/db/redis"
	"github.com/kailas-cloud/memsearch/internal/domain"
	dombatch "github.com/kailas-cloud/memsearch/internal/domain/batch"
	domemb "github.com/kailas-cloud/memsearch/internal/domain/embedding"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	"github.com/kailas-cloud/memsearch/internal/repository/embcache"
	factrepo "github.com/kailas-cloud/memsearch/internal/repository/fact"
	embeddinguc "github.com/kailas-cloud/memsearch/internal/usecase/embedding"
	factuc "github.com/kailas-cloud/memsearch/internal/usecase/fact"
	healthuc "github.com/kailas-cloud/memsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/memsearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultVectorDimensions = 1536
)

// Internal interfaces, swapped for fakes in tests.
type factUseCase interface {
	Add(ctx context.Context, owner, text string) (domfact.Fact, error)
	Get(ctx context.Context, owner, id string) (domfact.Fact, error)
	Import(ctx context.Context, owner string, texts []string) ([]dombatch.Result, error)
}

type searchUseCase interface {
	Search(ctx context.Context, q query.Query) (searchuc.Outcome, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type factStore interface {
	factuc.Repository
	searchuc.CandidateSource
	EnsureIndex(ctx context.Context) error
}

// Client is the memsearch SDK entry point.
type Client struct {
	factSvc   factUseCase
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
	closers   []func() error
}

// New creates a Client and opens its stores.
// The provided context bounds the initial readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions:  defaultVectorDimensions,
		threshold:         searchuc.DefaultThreshold,
		expandedThreshold: searchuc.DefaultExpandedThreshold,
		maxCandidates:     searchuc.DefaultMaxCandidates,
		importPoolSize:    factuc.DefaultPoolSize,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("memsearch: storage required (use WithRedis or WithLocal)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("memsearch: embedder required (use WithEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	if err := c.wire(ctx, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, cfg *clientConfig) error {
	cache, facts, ping, err := c.openStores(ctx, cfg)
	if err != nil {
		return err
	}
	if err := facts.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("memsearch: ensure fact index: %w", err)
	}

	emb := &embedderAdapter{inner: cfg.embedder}
	dims := embeddinguc.WithDimensions(cfg.vectorDimensions)
	queryEmb := embeddinguc.NewCached(emb, cache, domemb.FeatureSearchQuery, zap.NewNop(), dims)
	factEmb := embeddinguc.NewCached(emb, cache, domemb.FeatureFact, zap.NewNop(), dims)

	// keep the interface nil when no expander was given
	var expander searchuc.Expander
	if cfg.expander != nil {
		expander = cfg.expander
	}

	engine := searchuc.NewEngine(facts, cfg.maxCandidates)
	c.searchSvc = searchuc.New(engine, queryEmb, expander, searchuc.Config{
		Threshold:         cfg.threshold,
		ExpandedThreshold: cfg.expandedThreshold,
	})

	factSvc, err := factuc.New(facts, factEmb, cfg.importPoolSize)
	if err != nil {
		return fmt.Errorf("memsearch: create fact service: %w", err)
	}
	c.closers = append(c.closers, func() error { factSvc.Close(); return nil })
	c.factSvc = factSvc

	c.healthSvc = healthuc.New(ping, nil, nil)
	return nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func (c *Client) openStores(ctx context.Context, cfg *clientConfig) (embeddinguc.Store, factStore, pingFunc, error) {
	if cfg.driver == driverLocal {
		var cachePath, factsPath string
		if cfg.dataDir != "" {
			cachePath = filepath.Join(cfg.dataDir, "embeddings")
			factsPath = filepath.Join(cfg.dataDir, "facts")
		}
		cache, err := embcache.OpenBadger(cachePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("memsearch: open embedding cache: %w", err)
		}
		c.closers = append(c.closers, cache.Close)

		facts, err := factrepo.OpenChromem(factsPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("memsearch: open fact store: %w", err)
		}
		c.closers = append(c.closers, facts.Close)
		return cache, facts, cache.Ping, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("memsearch: create redis store: %w", err)
	}
	c.closers = append(c.closers, func() error { store.Close(); return nil })

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		return nil, nil, nil, fmt.Errorf("memsearch: database not ready: %w", err)
	}
	facts := factrepo.New(store, cfg.vectorDimensions, factrepo.HNSWConfig{
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})
	return embcache.New(store), facts, store.Ping, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Facts returns the fact service for one owner.
func (c *Client) Facts(owner string) *FactService {
	return &FactService{owner: owner, svc: c.factSvc, obs: c.obs}
}

// Search returns the search service for one owner.
func (c *Client) Search(owner string) *SearchService {
	return &SearchService{owner: owner, svc: c.searchSvc, obs: c.obs}
}

// embedderAdapter bridges the public Embedder to the domain contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
