// Package crisis maps message text to a crisis severity tier using static keyword lists.
package crisis

import (
	"log/slog"
	"strings"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
)

// Lexicon holds the keyword list for each tier. Keywords are matched as
// lower-case substrings.
type Lexicon struct {
	Severe []string
	High   []string
	Medium []string
	Low    []string
}

// DefaultLexicon returns the built-in keyword lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Severe: []string{"suicide", "kill myself", "end my life", "want to die", "better off dead"},
		High:   []string{"self harm", "cutting", "hopeless", "can't take it", "give up"},
		Medium: []string{"depressed", "anxiety", "panic", "overwhelmed", "trapped"},
		Low:    []string{"stressed", "sad", "lonely", "tired", "worried"},
	}
}

// Assessment is the per-message classification result. It is not persisted on
// its own; crisis replies carry its severity in their metadata.
type Assessment struct {
	Severity data.Severity
	Keywords []string
}

type tier struct {
	severity data.Severity
	keywords []string
}

// Classifier scans text against the tiers, most severe first.
type Classifier struct {
	tiers  []tier
	logger *slog.Logger
}

// NewClassifier builds a classifier. Keywords are lower-cased once here.
func NewClassifier(lex Lexicon, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		tiers: []tier{
			{data.SeveritySevere, lower(lex.Severe)},
			{data.SeverityHigh, lower(lex.High)},
			{data.SeverityMedium, lower(lex.Medium)},
			{data.SeverityLow, lower(lex.Low)},
		},
		logger: logger,
	}
}

// Classify returns the highest tier with any keyword match and the keywords
// matched from that tier downward. Scanning stops after a severe match, so a
// severe result only lists severe keywords. Without matches the result is low
// with no keywords.
//
// TODO: return only the winning tier's keywords once clients stop relying on
// the accumulated list.
func (c *Classifier) Classify(text string) Assessment {
	lowered := strings.ToLower(text)

	result := Assessment{Severity: data.SeverityLow, Keywords: []string{}}
	matchedAny := false

	for _, t := range c.tiers {
		found := matches(lowered, t.keywords)
		if len(found) == 0 {
			continue
		}
		result.Keywords = append(result.Keywords, found...)
		if !matchedAny {
			result.Severity = t.severity
			matchedAny = true
		}
		if t.severity == data.SeveritySevere {
			break
		}
	}

	if result.Severity.IsCrisis() {
		c.logger.Warn("crisis keywords detected",
			"severity", result.Severity,
			"keywords", result.Keywords,
			"text", text,
		)
	}

	return result
}

func matches(lowered string, keywords []string) []string {
	var found []string
	for _, k := range keywords {
		if k != "" && strings.Contains(lowered, k) {
			found = append(found, k)
		}
	}
	return found
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
