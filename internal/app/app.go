// Package app is the composition root shared by the memsearch binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/config"
	dbRedis "github.com/kailas-cloud/memsearch/internal/db/redis"
	domemb "github.com/kailas-cloud/memsearch/internal/domain/embedding"
	"github.com/kailas-cloud/memsearch/internal/metrics"
	"github.com/kailas-cloud/memsearch/internal/repository/embcache"
	factrepo "github.com/kailas-cloud/memsearch/internal/repository/fact"
	promptrepo "github.com/kailas-cloud/memsearch/internal/repository/prompt"
	anthropicChat "github.com/kailas-cloud/memsearch/internal/transport/anthropic"
	langchainChat "github.com/kailas-cloud/memsearch/internal/transport/langchain"
	openaiEmb "github.com/kailas-cloud/memsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/memsearch/internal/usecase/embedding"
	"github.com/kailas-cloud/memsearch/internal/usecase/expansion"
	factuc "github.com/kailas-cloud/memsearch/internal/usecase/fact"
	healthuc "github.com/kailas-cloud/memsearch/internal/usecase/health"
	promptuc "github.com/kailas-cloud/memsearch/internal/usecase/prompt"
	searchuc "github.com/kailas-cloud/memsearch/internal/usecase/search"
)

// factStore is what both fact backends provide.
type factStore interface {
	factuc.Repository
	searchuc.CandidateSource
	EnsureIndex(ctx context.Context) error
}

var (
	_ factStore = (*factrepo.Repo)(nil)
	_ factStore = (*factrepo.ChromemRepo)(nil)

	_ embeddinguc.Store = (*embcache.Repo)(nil)
	_ embeddinguc.Store = (*embcache.BadgerRepo)(nil)
)

// pingFunc adapts a func to health.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// App holds the wired services.
type App struct {
	Facts   *factuc.Service
	Search  *searchuc.Service
	Prompts *promptuc.Service
	Health  *healthuc.Service

	closers []func() error
}

// New wires stores, providers and services from cfg. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	a := &App{}
	if err := a.build(ctx, cfg, logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cache, facts, dbPing, err := a.openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := facts.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure fact index: %w", err)
	}

	prompts, err := promptrepo.OpenSQLite(ctx, cfg.Prompts.Path)
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}
	a.closers = append(a.closers, prompts.Close)

	cachedPrompts, err := promptrepo.NewCached(prompts, cfg.Prompts.CacheTTL())
	if err != nil {
		return fmt.Errorf("create prompt cache: %w", err)
	}
	a.closers = append(a.closers, func() error { cachedPrompts.Close(); return nil })

	provider := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout(),
		Provider:   "openai",
		Logger:     logger,
	})
	cacheOpts := []embeddinguc.Option{
		embeddinguc.WithDimensions(cfg.Embedding.Dimensions),
		embeddinguc.WithStoreTimeout(cfg.Database.Timeout()),
	}
	queryEmbedder := embeddinguc.NewCached(provider, cache, domemb.FeatureSearchQuery, logger, cacheOpts...)
	factEmbedder := embeddinguc.NewCached(provider, cache, domemb.FeatureFact, logger, cacheOpts...)

	// nil interface, not a typed nil pointer, when expansion is off
	var expander searchuc.Expander
	if cfg.Expansion.Enabled {
		chat, err := newChatModel(&cfg.Chat, logger)
		if err != nil {
			return err
		}
		expander = expansion.New(cachedPrompts, chat, expansion.Config{
			MaxAttempts:    cfg.Expansion.MaxAttempts,
			RetryDelay:     cfg.Expansion.RetryDelay(),
			AttemptTimeout: cfg.Expansion.AttemptTimeout(),
		}, logger)
	}

	engine := searchuc.NewEngine(facts, cfg.Search.MaxCandidates).WithTimeout(cfg.Database.Timeout())
	a.Search = searchuc.New(engine, queryEmbedder, expander, searchuc.Config{
		Threshold:         *cfg.Search.Threshold,
		ExpandedThreshold: *cfg.Search.ExpandedThreshold,
	})

	a.Facts, err = factuc.New(facts, factEmbedder, cfg.Import.PoolSize)
	if err != nil {
		return fmt.Errorf("create fact service: %w", err)
	}
	a.closers = append(a.closers, func() error { a.Facts.Close(); return nil })

	a.Prompts = promptuc.New(cachedPrompts)
	a.Health = healthuc.New(dbPing, prompts, provider).WithTimeout(cfg.Database.Timeout())

	logger.Info("Services wired",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("expansion", cfg.Expansion.Enabled),
		zap.String("chat_provider", cfg.Chat.Provider),
	)
	return nil
}

func (a *App) openStores(
	ctx context.Context, cfg *config.Config, logger *zap.Logger,
) (embeddinguc.Store, factStore, pingFunc, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:        cfg.Database.Addrs,
			Username:     cfg.Database.Username,
			Password:     cfg.Database.Password,
			DB:           cfg.Database.DB,
			WriteTimeout: cfg.Database.Timeout(),
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		a.closers = append(a.closers, func() error { store.Close(); return nil })

		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			return nil, nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

		facts := factrepo.New(store, cfg.Embedding.Dimensions, factrepo.HNSWConfig{
			M:           cfg.Database.HNSWM,
			EFConstruct: cfg.Database.HNSWEFConstruct,
		})
		return embcache.New(store), facts, store.Ping, nil

	case config.DriverLocal:
		var cachePath, factsPath string
		if cfg.Database.DataDir != "" {
			cachePath = filepath.Join(cfg.Database.DataDir, "embeddings")
			factsPath = filepath.Join(cfg.Database.DataDir, "facts")
		}
		cache, err := embcache.OpenBadger(cachePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open embedding cache: %w", err)
		}
		a.closers = append(a.closers, cache.Close)

		facts, err := factrepo.OpenChromem(factsPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open fact store: %w", err)
		}
		a.closers = append(a.closers, facts.Close)
		logger.Info("Using local stores", zap.String("data_dir", cfg.Database.DataDir))
		return cache, facts, cache.Ping, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

func newChatModel(cfg *config.ChatConfig, logger *zap.Logger) (expansion.ChatModel, error) {
	switch cfg.Provider {
	case config.ChatProviderAnthropic:
		return anthropicChat.New(anthropicChat.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: int64(cfg.MaxTokens),
			Timeout:   cfg.Timeout(),
		}), nil
	default:
		chat, err := langchainChat.New(langchainChat.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create chat model: %w", err)
		}
		return chat, nil
	}
}

// Close releases stores and pools in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

