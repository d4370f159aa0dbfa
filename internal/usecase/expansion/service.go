// Package expansion enriches raw search text with related terms from a chat model.
package expansion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/metrics"
	"github.com/kailas-cloud/memsearch/internal/usecase/retry"
)

// Separator joins the raw text and the model's expansion.
const Separator = ", "

// DefaultMaxAttempts is used when Config.MaxAttempts is not positive.
const DefaultMaxAttempts = 3

// Config tunes the retry behavior of expansion.
type Config struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

// Service expands queries. It never fails the caller.
type Service struct {
	prompts        PromptSource
	chat           ChatModel
	policy         retry.Policy
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// New creates an expansion service.
func New(prompts PromptSource, chat ChatModel, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		prompts:        prompts,
		chat:           chat,
		attemptTimeout: cfg.AttemptTimeout,
		logger:         logger,
	}
	s.policy = retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		OnRetry: func(attempt int, err error) {
			s.logger.Debug("Query expansion attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
	}
	return s
}

// Expand returns raw followed by the model's related terms. An empty reply or
// a failure after all attempts returns raw unchanged.
func (s *Service) Expand(ctx context.Context, raw, feature string) string {
	attempts := 0
	out, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		attempts++
		return s.attempt(ctx, raw, feature)
	})
	metrics.QueryExpansionAttempts.Observe(float64(attempts))

	if err != nil {
		metrics.QueryExpansionTotal.WithLabelValues(feature, "failed").Inc()
		s.logger.Warn("Query expansion failed, using raw text",
			zap.String("feature", feature),
			zap.String("text", raw),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return raw
	}

	expansion := strings.TrimSpace(out)
	if expansion == "" {
		metrics.QueryExpansionTotal.WithLabelValues(feature, "empty").Inc()
		return raw
	}

	metrics.QueryExpansionTotal.WithLabelValues(feature, "expanded").Inc()
	return raw + Separator + expansion
}

func (s *Service) attempt(ctx context.Context, raw, feature string) (string, error) {
	if s.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()
	}

	p, err := s.prompts.Latest(ctx, feature)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	out, err := s.chat.Generate(ctx, domain.ChatRequest{
		SystemInstruction: p.Text(),
		UserText:          raw,
		Temperature:       0,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}
