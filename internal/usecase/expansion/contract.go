package expansion

import (
	"context"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
)

// PromptSource returns the latest system prompt for a feature.
type PromptSource interface {
	Latest(ctx context.Context, feature string) (domprompt.Prompt, error)
}

// ChatModel generates a completion for one system + user exchange.
type ChatModel interface {
	Generate(ctx context.Context, req domain.ChatRequest) (string, error)
}
