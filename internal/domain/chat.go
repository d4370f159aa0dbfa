package domain

import "context"

// ChatRequest is a single-turn chat completion request.
type ChatRequest struct {
	SystemInstruction string
	UserText          string
	Temperature       float64
}

// ChatModel generates text from a system instruction and a user message.
// Implementations must be safe for concurrent use.
type ChatModel interface {
	Generate(ctx context.Context, req ChatRequest) (string, error)
}
