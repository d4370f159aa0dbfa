package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrFactNotFound signals a missing fact.
	ErrFactNotFound = errors.New("fact not found")
	// ErrPromptNotFound signals that no system prompt is configured for a feature.
	ErrPromptNotFound = errors.New("system prompt not found")
	// ErrInvalidQuery signals an invalid search query or request parameter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat model failure.
	ErrChatProviderError = errors.New("chat provider error")
)
