// Package prompt holds feature-scoped system instructions for the chat model.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/memsearch/internal/domain"
)

// MaxLength bounds a stored system prompt in bytes.
const MaxLength = 32768

// Prompt is one version of a system instruction for a feature.
type Prompt struct {
	feature   string
	text      string
	updatedAt time.Time
}

// New validates and creates a prompt version.
func New(feature, text string) (Prompt, error) {
	if !domain.IsValidFeatureName(feature) {
		return Prompt{}, fmt.Errorf("%w: invalid feature name %q", domain.ErrInvalidQuery, feature)
	}
	if strings.TrimSpace(text) == "" {
		return Prompt{}, fmt.Errorf("%w: prompt text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxLength {
		return Prompt{}, fmt.Errorf("%w: prompt exceeds %d bytes", domain.ErrInvalidQuery, MaxLength)
	}
	return Prompt{feature: feature, text: text, updatedAt: time.Now().UTC()}, nil
}

// Reconstruct restores a prompt from storage.
func Reconstruct(feature, text string, updatedAt time.Time) Prompt {
	return Prompt{feature: feature, text: text, updatedAt: updatedAt}
}

// Feature returns the feature identifier.
func (p Prompt) Feature() string { return p.feature }

// Text returns the instruction text.
func (p Prompt) Text() string { return p.text }

// UpdatedAt returns the version timestamp.
func (p Prompt) UpdatedAt() time.Time { return p.updatedAt }
