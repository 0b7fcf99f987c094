package responder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/crisis"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/llm"
)

type fakeCompleter struct {
	answer string
	err    error
	block  bool
	calls  int
	got    llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.got = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func TestCrisisReply(t *testing.T) {
	fc := &fakeCompleter{answer: "should not be used"}
	var buf bytes.Buffer
	g := New(fc, time.Second, slog.New(slog.NewJSONHandler(&buf, nil)))

	r := g.Crisis("I feel hopeless", crisis.Assessment{Severity: data.SeverityHigh, Keywords: []string{"hopeless"}})
	assert.Equal(t, data.KindCrisis, r.Kind)
	require.NotNil(t, r.Metadata)
	assert.Equal(t, data.SeverityHigh, r.Metadata.Severity)
	assert.Contains(t, r.Content, "988")
	assert.Contains(t, r.Content, "741741")
	assert.False(t, r.AIError)
	assert.Zero(t, fc.calls, "crisis branch must not call the AI service")
	assert.Empty(t, buf.String(), "high severity gets no extra event")

	r = g.Crisis("I want to end my life", crisis.Assessment{Severity: data.SeveritySevere, Keywords: []string{"end my life"}})
	assert.Equal(t, data.SeveritySevere, r.Metadata.Severity)
	assert.Contains(t, buf.String(), "severe crisis detected")
	assert.Contains(t, buf.String(), "I want to end my life")
	assert.Zero(t, fc.calls)
}

func TestGenerate(t *testing.T) {
	fc := &fakeCompleter{answer: "That sounds lovely."}
	g := New(fc, time.Second, slog.New(slog.DiscardHandler))

	r := g.Generate(context.Background(), "I had a great day")
	assert.Equal(t, Reply{Content: "That sounds lovely.", Kind: data.KindText}, r)
	assert.Equal(t, "I had a great day", fc.got.Prompt)
	assert.Contains(t, fc.got.System, "Never diagnose")
	assert.Equal(t, 0.7, fc.got.Temperature)
	assert.Equal(t, 150, fc.got.MaxTokens)
}

func TestGenerateFallback(t *testing.T) {
	tests := []struct {
		name string
		fc   llm.Completer
	}{
		{"network error", &fakeCompleter{err: errors.New("dial tcp: connection refused")}},
		{"quota", &fakeCompleter{err: fmt.Errorf("%w: quota exceeded", llm.ErrFatalAPI)}},
		{"empty completion", &fakeCompleter{err: llm.ErrEmptyCompletion}},
		{"timeout", &fakeCompleter{block: true}},
		{"no completer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.fc, 20*time.Millisecond, slog.New(slog.DiscardHandler))
			r := g.Generate(context.Background(), "hello")
			assert.Equal(t, FallbackMessage, r.Content)
			assert.Equal(t, data.KindText, r.Kind)
			assert.True(t, r.AIError)
			assert.Nil(t, r.Metadata)
		})
	}
}

func TestGenerateLogsFatalProviderErrors(t *testing.T) {
	var buf bytes.Buffer
	g := New(&fakeCompleter{err: fmt.Errorf("%w: invalid api key", llm.ErrFatalAPI)}, time.Second, slog.New(slog.NewJSONHandler(&buf, nil)))

	g.Generate(context.Background(), "hi")
	assert.Contains(t, buf.String(), "check credentials and quota")
}
