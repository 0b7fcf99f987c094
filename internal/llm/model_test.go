package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/config"
)

// fakeLLM records the last call and returns a canned response.
type fakeLLM struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestModelComplete(t *testing.T) {
	fake := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  You are not alone.  "}}}}
	m := NewModelFrom(fake, "test-model")

	got, err := m.Complete(context.Background(), Request{System: "be kind", Prompt: "hello", Temperature: 0.7, MaxTokens: 150})
	require.NoError(t, err)
	assert.Equal(t, "You are not alone.", got)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
	assert.Equal(t, 0.7, fake.opts.Temperature)
	assert.Equal(t, 150, fake.opts.MaxTokens)
	assert.Equal(t, "test-model", m.Model())
}

func TestModelCompleteFailures(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
		want error
	}{
		{"no choices", &fakeLLM{resp: &llms.ContentResponse{}}, ErrNoChoices},
		{"blank content", &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " \n"}}}}, ErrEmptyCompletion},
		{"quota", &fakeLLM{err: errors.New("You exceeded your current quota")}, ErrFatalAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModelFrom(tt.llm, "m").Complete(context.Background(), Request{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewModelFrom(&fakeLLM{err: errors.New("connection reset")}, "m").Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFatalAPI)
}

func TestNewModelValidation(t *testing.T) {
	_, err := NewModel(config.Config{LLMProvider: config.ProviderOpenAI})
	assert.Error(t, err, "openai without key")

	_, err = NewModel(config.Config{LLMProvider: config.ProviderAnthropic})
	assert.Error(t, err, "anthropic without key")

	_, err = NewModel(config.Config{LLMProvider: "bogus"})
	assert.Error(t, err)

	_, err = NewCompleter(context.Background(), config.Config{LLMProvider: config.ProviderGemini})
	assert.Error(t, err, "gemini without key")
}

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
		{"unauthorized", errors.New("unauthorized request"), true},
		{"401 status", errors.New("HTTP 401: not allowed"), true},
		{"wrapped error", fmt.Errorf("generate: %w", errors.New("credit balance too low")), true},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, isFatalAPIError(tt.err))
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	err := errors.New("network timeout")
	assert.Same(t, err, wrapFatalError(err))
	assert.Nil(t, wrapFatalError(nil))
	assert.ErrorIs(t, wrapFatalError(errors.New("invalid api key provided")), ErrFatalAPI)
}
