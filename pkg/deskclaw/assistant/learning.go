// Package assistant – learning.go implements the feedback review loop.
// Thumbs-down exchanges recorded during chat are replayed through the
// model to propose a better answer for each, so negative ratings feed
// back into improvement material instead of sitting unread.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// Suggestion pairs a poorly rated exchange with a proposed replacement
// answer.
type Suggestion struct {
	Query       string
	BadReply    string
	BetterReply string
}

const improvementPrompt = `The user was not satisfied with the following answer.

Question: %s
Answer: %s

Write a better, more helpful answer to the question.`

// ReviewFeedback replays every thumbs-down exchange through the model and
// returns a proposed better answer for each. Snapshots that cannot be
// decoded are skipped rather than failing the whole review.
func ReviewFeedback(ctx context.Context, st *store.Store, backend LLMBackend) ([]Suggestion, error) {
	entries, err := st.NegativeFeedback()
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for _, entry := range entries {
		var snapshot struct {
			User      string `json:"user"`
			Assistant string `json:"assistant"`
		}
		if err := json.Unmarshal([]byte(entry.ConversationHistory), &snapshot); err != nil || snapshot.User == "" {
			continue
		}

		better, err := backend.CompletePrompt(ctx, fmt.Sprintf(improvementPrompt, snapshot.User, snapshot.Assistant))
		if err != nil {
			return suggestions, fmt.Errorf("propose better answer: %w", err)
		}
		suggestions = append(suggestions, Suggestion{
			Query:       snapshot.User,
			BadReply:    snapshot.Assistant,
			BetterReply: strings.TrimSpace(better),
		})
	}
	return suggestions, nil
}
