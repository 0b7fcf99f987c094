// Package responder builds the assistant's reply: a fixed safety message for
// crisis turns, otherwise an AI completion with a fixed fallback.
package responder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/crisis"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/llm"
)

const (
	// CrisisMessage is sent instead of an AI reply when high or severe risk is detected.
	CrisisMessage = "I notice you might be going through a difficult time. Please remember that help is available 24/7:\n\n" +
		"988 Suicide & Crisis Lifeline - Call or text 988\n" +
		"Crisis Text Line - Text HOME to 741741\n\n" +
		"Would you like me to help you connect with a mental health professional?"

	// FallbackMessage replaces the AI reply whenever the completion service fails.
	FallbackMessage = "I apologize, but I'm having trouble processing your message right now. " +
		"Please try again in a moment. If you're in immediate need of support, remember you can always " +
		"reach out to professional help services or emergency contacts."

	systemPrompt = "You are an empathetic mental health support chatbot. Provide supportive, " +
		"non-judgmental responses. Never diagnose or provide medical advice. " +
		"Instead, encourage professional help when appropriate. Use a warm, " +
		"caring tone while maintaining appropriate boundaries. Keep responses concise but helpful."

	temperature = 0.7
	maxTokens   = 150
)

// Reply is the assistant message content produced for one user turn.
type Reply struct {
	Content  string
	Kind     data.MessageKind
	Metadata *data.MessageMetadata

	// AIError is set when the completion failed and FallbackMessage was used.
	AIError bool
}

// Generator produces replies. A nil completer always yields the fallback.
type Generator struct {
	completer llm.Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Generator bounded by timeout (zero disables the bound).
func New(completer llm.Completer, timeout time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, timeout: timeout, logger: logger}
}

// Crisis returns the fixed safety reply for a high or severe assessment. It
// never calls the completion service.
func (g *Generator) Crisis(text string, a crisis.Assessment) Reply {
	if a.Severity == data.SeveritySevere {
		// Logging only; no automated escalation happens here
		g.logger.Warn("severe crisis detected",
			"text", text,
			"severity", a.Severity,
			"keywords", a.Keywords,
		)
	}

	return Reply{
		Content:  CrisisMessage,
		Kind:     data.KindCrisis,
		Metadata: &data.MessageMetadata{Severity: a.Severity},
	}
}

// Generate asks the completion service for a supportive reply. Failures are
// never returned; the reply falls back to FallbackMessage with AIError set.
func (g *Generator) Generate(ctx context.Context, text string) Reply {
	if g.completer == nil {
		return fallback()
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	content, err := g.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      text,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		if errors.Is(err, llm.ErrFatalAPI) {
			g.logger.Error("AI provider rejected request, check credentials and quota", "error", err)
		} else {
			g.logger.Error("AI completion failed", "error", err)
		}
		return fallback()
	}

	g.logger.Debug("AI response generated", "length", len(content))
	return Reply{Content: content, Kind: data.KindText}
}

func fallback() Reply {
	return Reply{Content: FallbackMessage, Kind: data.KindText, AIError: true}
}
