package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/memsearch/internal/domain/batch"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/memsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/memsearch/internal/usecase/search"
)

// FactService adds, imports and reads facts.
type FactService interface {
	Add(ctx context.Context, owner, text string) (domfact.Fact, error)
	Get(ctx context.Context, owner, id string) (domfact.Fact, error)
	Import(ctx context.Context, owner string, texts []string) ([]dombatch.Result, error)
}

// SearchService runs the search pipeline.
type SearchService interface {
	Search(ctx context.Context, q query.Query) (searchuc.Outcome, error)
}

// PromptService manages system prompts.
type PromptService interface {
	Set(ctx context.Context, feature, text string) (domprompt.Prompt, error)
	Get(ctx context.Context, feature string) (domprompt.Prompt, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
