// Package assistant – classifier.go implements the generative fallback
// classifier, consulted only when no keyword phrase matches. The model is
// prompted with the closed catalogue and must answer in JSON; anything it
// gets wrong (unknown id, broken JSON, missing fields) degrades to the
// unhandled intent instead of failing the turn.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
)

// promptCompleter is the slice of the LLM client classification needs.
type promptCompleter interface {
	CompletePrompt(ctx context.Context, prompt string) (string, error)
}

// Classifier picks an intent and extracts arguments for free-form text.
type Classifier struct {
	llm       promptCompleter
	catalogue map[string]Intent
	logger    *slog.Logger

	// prompt header is built once; only the user text varies per call.
	header string
}

// NewClassifier creates a fallback classifier over the catalogue.
func NewClassifier(llm promptCompleter, catalogue map[string]Intent, logger *slog.Logger) *Classifier {
	return &Classifier{
		llm:       llm,
		catalogue: catalogue,
		logger:    logger.With("component", "classifier"),
		header:    buildClassifierHeader(catalogue),
	}
}

// Classify maps text to (intent id, arguments). Never returns an id
// outside the catalogue; on any model failure it returns IntentUnhandled
// with empty arguments and a nil error, because degraded classification
// is an answer, not a fault.
func (c *Classifier) Classify(ctx context.Context, text string) (string, map[string]string) {
	prompt := c.header + "\n\nUser message: " + strings.TrimSpace(text) +
		"\n\nRespond with ONLY a JSON object: {\"intent\": \"<id>\", \"args\": {\"<slot>\": \"<value>\"}}"

	raw, err := c.llm.CompletePrompt(ctx, prompt)
	if err != nil {
		c.logger.Warn("classifier call failed", "error", err)
		return IntentUnhandled, map[string]string{}
	}

	var result struct {
		Intent string            `json:"intent"`
		Args   map[string]string `json:"args"`
	}
	if err := json.Unmarshal([]byte(features.FixJSON(raw)), &result); err != nil {
		c.logger.Warn("classifier returned malformed JSON", "raw", raw)
		return IntentUnhandled, map[string]string{}
	}

	intent, ok := c.catalogue[result.Intent]
	if !ok {
		c.logger.Warn("classifier picked unknown intent", "intent", result.Intent)
		return IntentUnhandled, map[string]string{}
	}

	// Keep only arguments the intent declares; drift gets dropped here.
	args := make(map[string]string)
	for _, slot := range intent.Slots {
		if value, ok := result.Args[slot.Name]; ok {
			args[slot.Name] = strings.TrimSpace(value)
		}
	}
	return intent.ID, args
}

// buildClassifierHeader renders the catalogue as prompt text, sorted by
// id so the prompt is stable across runs.
func buildClassifierHeader(catalogue map[string]Intent) string {
	ids := make([]string, 0, len(catalogue))
	for id := range catalogue {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("You route user messages for a desktop assistant. Pick exactly one intent from this list and extract its arguments from the message:\n")
	for _, id := range ids {
		intent := catalogue[id]
		fmt.Fprintf(&b, "- %s: %s", intent.ID, intent.Description)
		if len(intent.Slots) > 0 {
			var slots []string
			for _, slot := range intent.Slots {
				slots = append(slots, fmt.Sprintf("%s (%s)", slot.Name, slot.Description))
			}
			fmt.Fprintf(&b, " Args: %s", strings.Join(slots, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("If nothing fits, use \"unhandled\". Never invent intents outside the list.")
	return b.String()
}
