// Package anthropic adapts the Anthropic Messages API to domain.ChatModel.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

const provider = "anthropic"

const defaultMaxTokens = 256

// Config holds Anthropic settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// ChatModel implements domain.ChatModel via the Messages API.
type ChatModel struct {
	client    sdk.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// New creates an Anthropic chat model. SDK retries are disabled; callers own retry policy.
func New(cfg Config) *ChatModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &ChatModel{
		client:    sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
	}
}

// Generate sends one system + user exchange and concatenates the text blocks of the reply.
func (m *ChatModel) Generate(ctx context.Context, req domain.ChatRequest) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(m.model),
		MaxTokens:   m.maxTokens,
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.UserText)),
		},
	}
	if req.SystemInstruction != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemInstruction}}
	}

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params)
	metrics.ChatRequestDuration.WithLabelValues(provider, m.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(provider, m.model, "error").Inc()
		return "", fmt.Errorf("create message: %v: %w", err, domain.ErrChatProviderError)
	}
	metrics.ChatRequestsTotal.WithLabelValues(provider, m.model, "success").Inc()

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
