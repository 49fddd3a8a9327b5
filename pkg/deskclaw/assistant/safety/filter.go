// Package safety – filter.go implements the content filter that gates
// every turn before intent routing. Checks run in a fixed order: a small
// allowlist of pleasantries short-circuits to safe, a pattern scan blocks
// known-bad content outright, and an optional LLM classifier catches what
// the patterns miss. Classifier failures degrade to pattern-only
// filtering rather than blocking the user.
package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// DefaultUnsafeThreshold is the classifier score above which input is blocked.
const DefaultUnsafeThreshold = 0.85

// allowlist contains greetings that bypass all filtering.
var allowlist = []string{"hello", "hi", "hey", "how are you", "greetings"}

// unsafePatterns always block, regardless of classifier verdict.
var unsafePatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"violence", regexp.MustCompile(`(?i)\b(kill|murder|assassinate)\b`)},
	{"self-harm", regexp.MustCompile(`(?i)\b(suicide|self[- ]harm)\b`)},
	{"terrorism", regexp.MustCompile(`(?i)\b(bomb|terror(ism|ist)?|attack)\b`)},
	{"hate speech", regexp.MustCompile(`(?i)\b(hate speech|racist|sexist)\b`)},
	{"explicit content", regexp.MustCompile(`(?i)\b(explicit|porn|nsfw)\b`)},
}

// Result is the verdict of a filter check.
type Result struct {
	Safe bool

	// Reason names the matched pattern or classifier category when unsafe.
	Reason string
}

// Classifier scores input text for unsafe content, 0.0 (safe) to 1.0.
type Classifier interface {
	UnsafeScore(ctx context.Context, text string) (float64, error)
}

// Filter combines the allowlist, pattern scan and classifier.
type Filter struct {
	classifier Classifier
	threshold  float64
	logger     *slog.Logger
}

// NewFilter creates a content filter. classifier may be nil, in which case
// only the allowlist and pattern scan apply.
func NewFilter(classifier Classifier, threshold float64, logger *slog.Logger) *Filter {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultUnsafeThreshold
	}
	return &Filter{
		classifier: classifier,
		threshold:  threshold,
		logger:     logger.With("component", "safety"),
	}
}

// Check runs the filter on input. The check is deterministic for pattern
// hits and allowlisted input; checking the same text twice gives the same
// verdict for those paths.
func (f *Filter) Check(ctx context.Context, input string) Result {
	normalized := strings.ToLower(strings.TrimSpace(input))

	for _, phrase := range allowlist {
		if normalized == phrase {
			return Result{Safe: true}
		}
	}

	for _, p := range unsafePatterns {
		if p.re.MatchString(input) {
			f.logger.Warn("input blocked by pattern", "pattern", p.label)
			return Result{Safe: false, Reason: p.label}
		}
	}

	if f.classifier == nil {
		return Result{Safe: true}
	}

	score, err := f.classifier.UnsafeScore(ctx, input)
	if err != nil {
		// Pattern scan already passed; do not lock the user out because
		// the classifier backend is down.
		f.logger.Warn("classifier unavailable, pattern-only verdict", "error", err)
		return Result{Safe: true}
	}
	if score > f.threshold {
		f.logger.Warn("input blocked by classifier", "score", score)
		return Result{Safe: false, Reason: "flagged by content classifier"}
	}
	return Result{Safe: true}
}

// ── LLM classifier ──

// promptCompleter is the slice of the LLM client the classifier needs.
type promptCompleter interface {
	CompletePrompt(ctx context.Context, prompt string) (string, error)
}

const classifierPrompt = `Rate the following user message for unsafe content
(violence, self-harm, hate, sexual content involving minors, instructions for
weapons or illegal activity). Respond with ONLY a JSON object:
{"unsafe": <score between 0.0 and 1.0>}

Message: %q`

// LLMClassifier scores input using a chat-completion model.
type LLMClassifier struct {
	llm promptCompleter
}

// NewLLMClassifier wraps an LLM client as a safety classifier.
func NewLLMClassifier(llm promptCompleter) *LLMClassifier {
	return &LLMClassifier{llm: llm}
}

// UnsafeScore asks the model for an unsafe score in [0, 1].
func (c *LLMClassifier) UnsafeScore(ctx context.Context, text string) (float64, error) {
	raw, err := c.llm.CompletePrompt(ctx, fmt.Sprintf(classifierPrompt, text))
	if err != nil {
		return 0, fmt.Errorf("classifier request: %w", err)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var verdict struct {
		Unsafe float64 `json:"unsafe"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &verdict); err != nil {
		return 0, fmt.Errorf("classifier returned malformed verdict: %w", err)
	}
	if verdict.Unsafe < 0 || verdict.Unsafe > 1 {
		return 0, fmt.Errorf("classifier score %.2f out of range", verdict.Unsafe)
	}
	return verdict.Unsafe, nil
}
