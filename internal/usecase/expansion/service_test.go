package expansion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
	"github.com/kailas-cloud/memsearch/internal/metrics"
)

// --- Mocks ---

type mockPrompts struct {
	latestFn func(ctx context.Context, feature string) (domprompt.Prompt, error)
}

func (m *mockPrompts) Latest(ctx context.Context, feature string) (domprompt.Prompt, error) {
	return m.latestFn(ctx, feature)
}

type mockChat struct {
	calls    int
	requests []domain.ChatRequest
	fn       func(call int) (string, error)
}

func (m *mockChat) Generate(_ context.Context, req domain.ChatRequest) (string, error) {
	m.calls++
	m.requests = append(m.requests, req)
	return m.fn(m.calls)
}

func staticPrompt(text string) *mockPrompts {
	return &mockPrompts{latestFn: func(_ context.Context, feature string) (domprompt.Prompt, error) {
		return domprompt.Reconstruct(feature, text, time.Now()), nil
	}}
}

func newService(prompts PromptSource, chat ChatModel) *Service {
	metrics.RegisterPipelineMetrics()
	return New(prompts, chat, Config{MaxAttempts: 3, RetryDelay: 0}, zap.NewNop())
}

var errChat = fmt.Errorf("upstream 500: %w", domain.ErrChatProviderError)

// --- Tests ---

func TestExpand_AppendsTrimmedExpansion(t *testing.T) {
	chat := &mockChat{fn: func(int) (string, error) { return "  matcha, sencha\n", nil }}
	svc := newService(staticPrompt("Add related terms."), chat)

	got := svc.Expand(context.Background(), "green tea", "search_query")
	assert.Equal(t, "green tea, matcha, sencha", got)

	require.Len(t, chat.requests, 1)
	assert.Equal(t, "Add related terms.", chat.requests[0].SystemInstruction)
	assert.Equal(t, "green tea", chat.requests[0].UserText)
	assert.Zero(t, chat.requests[0].Temperature)
}

func TestExpand_EmptyReplyReturnsRaw(t *testing.T) {
	chat := &mockChat{fn: func(int) (string, error) { return " \t ", nil }}
	svc := newService(staticPrompt("p"), chat)

	assert.Equal(t, "green tea", svc.Expand(context.Background(), "green tea", "search_query"))
	assert.Equal(t, 1, chat.calls)
}

func TestExpand_ResultStartsWithRaw(t *testing.T) {
	replies := []string{"", "x", "a, b, c", "   ", "long reply with words"}
	for _, reply := range replies {
		chat := &mockChat{fn: func(int) (string, error) { return reply, nil }}
		svc := newService(staticPrompt("p"), chat)

		for _, raw := range []string{"q", "two words", "ünïcode"} {
			got := svc.Expand(context.Background(), raw, "search_query")
			assert.True(t, strings.HasPrefix(got, raw), "reply %q raw %q got %q", reply, raw, got)
		}
	}
}

func TestExpand_RecoversOnThirdAttempt(t *testing.T) {
	chat := &mockChat{fn: func(call int) (string, error) {
		if call < 3 {
			return "", errChat
		}
		return "matcha", nil
	}}
	svc := newService(staticPrompt("p"), chat)

	assert.Equal(t, "green tea, matcha", svc.Expand(context.Background(), "green tea", "search_query"))
	assert.Equal(t, 3, chat.calls)
}

func TestExpand_FailsSafeAfterThreeAttempts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	chat := &mockChat{fn: func(int) (string, error) { return "", errChat }}

	metrics.RegisterPipelineMetrics()
	svc := New(staticPrompt("p"), chat, Config{MaxAttempts: 3}, zap.New(core))

	got := svc.Expand(context.Background(), "green tea", "search_query")
	assert.Equal(t, "green tea", got)
	assert.Equal(t, 3, chat.calls)

	entries := logs.FilterMessage("Query expansion failed, using raw text").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "search_query", fields["feature"])
	assert.Equal(t, "green tea", fields["text"])
}

func TestExpand_MissingPromptIsRetriedThenAbsorbed(t *testing.T) {
	lookups := 0
	prompts := &mockPrompts{latestFn: func(context.Context, string) (domprompt.Prompt, error) {
		lookups++
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}}
	chat := &mockChat{fn: func(int) (string, error) { return "unused", nil }}
	svc := newService(prompts, chat)

	assert.Equal(t, "q", svc.Expand(context.Background(), "q", "search_query"))
	assert.Equal(t, 3, lookups)
	assert.Zero(t, chat.calls)
}

func TestExpand_CancelledContextReturnsRaw(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chat := &mockChat{fn: func(int) (string, error) { return "x", nil }}
	svc := newService(staticPrompt("p"), chat)

	assert.Equal(t, "q", svc.Expand(ctx, "q", "search_query"))
	assert.Zero(t, chat.calls)
}

func TestExpand_AttemptTimeoutApplied(t *testing.T) {
	metrics.RegisterPipelineMetrics()

	var deadlines []bool
	prompts := &mockPrompts{latestFn: func(ctx context.Context, feature string) (domprompt.Prompt, error) {
		_, ok := ctx.Deadline()
		deadlines = append(deadlines, ok)
		return domprompt.Reconstruct(feature, "p", time.Now()), nil
	}}
	chat := &mockChat{fn: func(int) (string, error) { return "", errors.New("timeout") }}
	svc := New(prompts, chat, Config{MaxAttempts: 2, AttemptTimeout: time.Second}, zap.NewNop())

	svc.Expand(context.Background(), "q", "search_query")
	assert.Equal(t, []bool{true, true}, deadlines)
}
