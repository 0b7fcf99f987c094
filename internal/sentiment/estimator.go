// Package sentiment labels a message positive, neutral or negative.
package sentiment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/llm"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/normalize"
)

const systemPrompt = "Analyze the sentiment of the following text and respond with ONLY one word: " +
	"positive, neutral, or negative."

// Lexicon holds the keyword lists used by the rule-based fallback.
type Lexicon struct {
	Positive []string
	Negative []string
}

// DefaultLexicon returns the built-in fallback keyword lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"happy", "good", "great", "wonderful", "excellent", "amazing",
			"love", "thank", "better", "hopeful", "grateful", "blessed",
		},
		Negative: []string{
			"sad", "bad", "terrible", "awful", "horrible", "hate",
			"angry", "upset", "worried", "stressed", "anxious", "depressed",
		},
	}
}

var defaultLexicon = DefaultLexicon()

// Estimator asks the completion service for a one-word label and falls back to
// keyword counting. It never fails.
type Estimator struct {
	completer llm.Completer
	lexicon   Lexicon
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an Estimator. A nil completer means the rule-based path is always used.
func New(completer llm.Completer, lex Lexicon, timeout time.Duration, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{completer: completer, lexicon: lex, timeout: timeout, logger: logger}
}

// Estimate returns exactly one of positive, neutral or negative.
func (e *Estimator) Estimate(ctx context.Context, text string) data.Sentiment {
	if e.completer == nil {
		return ruleBased(text, e.lexicon)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	answer, err := e.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      text,
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		e.logger.Error("sentiment analysis failed, using rule-based analysis", "error", err)
		return ruleBased(text, e.lexicon)
	}

	if label, ok := parseLabel(answer); ok {
		return label
	}

	e.logger.Warn("invalid sentiment from model, using rule-based analysis", "answer", answer)
	return ruleBased(text, e.lexicon)
}

// RuleBased labels text by counting which default positive and negative
// keywords it contains. It is a pure function of text.
func RuleBased(text string) data.Sentiment {
	return ruleBased(text, defaultLexicon)
}

func ruleBased(text string, lex Lexicon) data.Sentiment {
	lowered := strings.ToLower(text)

	positive := countPresent(lowered, lex.Positive)
	negative := countPresent(lowered, lex.Negative)

	switch {
	case positive > negative:
		return data.SentimentPositive
	case negative > positive:
		return data.SentimentNegative
	default:
		return data.SentimentNeutral
	}
}

func countPresent(lowered string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if k != "" && strings.Contains(lowered, strings.ToLower(k)) {
			n++
		}
	}
	return n
}

func parseLabel(answer string) (data.Sentiment, bool) {
	switch s := data.Sentiment(normalize.Label(answer)); s {
	case data.SentimentPositive, data.SentimentNeutral, data.SentimentNegative:
		return s, true
	default:
		return "", false
	}
}
