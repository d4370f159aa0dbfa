// Package langchain adapts an OpenAI-compatible chat model via langchaingo to domain.ChatModel.
package langchain

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

const provider = "openai"

// Config holds chat model settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// ChatModel implements domain.ChatModel over llms.Model.
type ChatModel struct {
	llm     llms.Model
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an OpenAI-compatible chat model.
func New(cfg Config) (*ChatModel, error) {
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	token := cfg.APIKey
	if token == "" {
		token = "none" // local OpenAI-compatible servers ignore auth but the client requires a token
	}
	opts = append(opts, openai.WithToken(token))

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{llm: llm, model: cfg.Model, timeout: cfg.Timeout, logger: logger}, nil
}

// Generate sends one system + user exchange and returns the first choice.
// No choices yields an empty string.
func (m *ChatModel) Generate(ctx context.Context, req domain.ChatRequest) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstruction),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserText),
	}

	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, content, llms.WithTemperature(req.Temperature))
	metrics.ChatRequestDuration.WithLabelValues(provider, m.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(provider, m.model, "error").Inc()
		return "", fmt.Errorf("generate content: %v: %w", err, domain.ErrChatProviderError)
	}
	metrics.ChatRequestsTotal.WithLabelValues(provider, m.model, "success").Inc()

	if len(resp.Choices) == 0 {
		m.logger.Debug("Chat model returned no choices", zap.String("model", m.model))
		return "", nil
	}
	return resp.Choices[0].Content, nil
}
