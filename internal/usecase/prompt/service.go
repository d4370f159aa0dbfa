// Package prompt manages the per-feature system prompts used by query expansion.
package prompt

import (
	"context"
	"fmt"

	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
)

// Repository stores prompt versions.
type Repository interface {
	Latest(ctx context.Context, feature string) (domprompt.Prompt, error)
	Save(ctx context.Context, p domprompt.Prompt) error
}

// Service validates and stores system prompts.
type Service struct {
	repo Repository
}

// New creates a prompt service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Set stores text as the newest prompt version for feature.
func (s *Service) Set(ctx context.Context, feature, text string) (domprompt.Prompt, error) {
	p, err := domprompt.New(feature, text)
	if err != nil {
		return domprompt.Prompt{}, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return domprompt.Prompt{}, fmt.Errorf("save prompt: %w", err)
	}
	return p, nil
}

// Get returns the newest prompt for feature or domain.ErrPromptNotFound.
func (s *Service) Get(ctx context.Context, feature string) (domprompt.Prompt, error) {
	p, err := s.repo.Latest(ctx, feature)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("get prompt: %w", err)
	}
	return p, nil
}
