package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/raphaelgruber/procwise/internal/config"
	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"billing issue", errors.New("billing account inactive"), true},
		{"invalid api key", errors.New("invalid api key"), true},
		{"authentication failed", errors.New("authentication failed"), true},
		{"unauthorized", errors.New("unauthorized request"), true},
		{"401 status", errors.New("HTTP 401: not allowed"), true},
		{"403 status", errors.New("HTTP 403: forbidden"), true},
		{"wrapped error", fmt.Errorf("generate: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isFatalAPIError(tt.err)
			if got != tt.fatal {
				t.Errorf("isFatalAPIError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	t.Run("wraps fatal error", func(t *testing.T) {
		err := errors.New("invalid api key provided")
		wrapped := wrapFatalError(err)
		if !errors.Is(wrapped, ErrFatalAPI) {
			t.Errorf("expected wrapped error to match ErrFatalAPI")
		}
	})

	t.Run("passes through non-fatal error", func(t *testing.T) {
		err := errors.New("network timeout")
		result := wrapFatalError(err)
		if errors.Is(result, ErrFatalAPI) {
			t.Errorf("non-fatal error should not be wrapped with ErrFatalAPI")
		}
		if result != err {
			t.Errorf("expected original error returned, got %v", result)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		result := wrapFatalError(nil)
		if result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})
}

type fakeLLM struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeLLM) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestGenerateWithSystem(t *testing.T) {
	fake := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        "hello",
		GenerationInfo: map[string]any{"InputTokens": 12, "OutputTokens": 3},
	}}}}
	collector := metrics.NewCollector()
	m := NewModelFrom(fake, "test-model", collector, nil)

	got, err := m.GenerateWithSystem(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "test-model", m.Model())

	require.Len(t, fake.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)

	snap := collector.Snapshot().LLMCall
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Count)
	require.NotNil(t, snap.TotalInputTokens)
	assert.Equal(t, int64(12), *snap.TotalInputTokens)
	assert.Equal(t, int64(3), *snap.TotalOutputTokens)
}

func TestGenerateWithSystemErrors(t *testing.T) {
	t.Run("fatal provider error", func(t *testing.T) {
		collector := metrics.NewCollector()
		m := NewModelFrom(&fakeLLM{err: errors.New("HTTP 401: invalid api key")}, "m", collector, nil)

		_, err := m.GenerateWithSystem(context.Background(), "s", "u")
		assert.ErrorIs(t, err, ErrFatalAPI)
		assert.Equal(t, int64(1), collector.Snapshot().LLMCall.Failures)
	})

	t.Run("transient provider error", func(t *testing.T) {
		m := NewModelFrom(&fakeLLM{err: errors.New("connection reset")}, "m", nil, nil)
		_, err := m.GenerateWithSystem(context.Background(), "s", "u")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrFatalAPI)
	})

	t.Run("no choices", func(t *testing.T) {
		m := NewModelFrom(&fakeLLM{resp: &llms.ContentResponse{}}, "m", nil, nil)
		_, err := m.GenerateWithSystem(context.Background(), "s", "u")
		assert.ErrorIs(t, err, ErrNoChoices)
	})
}

func TestTokenUsage(t *testing.T) {
	tests := []struct {
		name    string
		info    map[string]any
		in, out int64
	}{
		{"anthropic keys", map[string]any{"InputTokens": 10, "OutputTokens": 4}, 10, 4},
		{"openai keys", map[string]any{"PromptTokens": 7, "CompletionTokens": 2}, 7, 2},
		{"float values", map[string]any{"prompt_tokens": 5.0, "completion_tokens": 1.0}, 5, 1},
		{"missing", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out := tokenUsage(tt.info)
			assert.Equal(t, tt.in, in)
			assert.Equal(t, tt.out, out)
		})
	}
}

func TestNewModelRejectsMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"openai without key", config.Config{LLMProvider: config.ProviderOpenAI, LLMModel: "gpt-4o"}},
		{"anthropic without key", config.Config{LLMProvider: config.ProviderAnthropic, LLMModel: "claude"}},
		{"unknown provider", config.Config{LLMProvider: "mystery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(context.Background(), tt.cfg, nil, nil)
			assert.Error(t, err)
		})
	}
}
