// Package assistant – handlers_stream.go implements the streaming intent
// handlers. These emit partial fragments as they arrive from the model or
// from long-running research steps; the planner appends the terminal
// sentinel after the handler returns.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
)

const defaultSystemPrompt = "You are a helpful desktop assistant. Answer clearly and concisely."

// chatSystemPrompt layers the user's stored language and tone preferences
// on top of the base prompt.
func chatSystemPrompt(turn *TurnContext) string {
	prompt := turn.Caps.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	if turn.User == nil {
		return prompt
	}

	if lang, err := turn.Caps.Store.GetPreference(turn.User.Email, "language"); err == nil && lang != "" {
		prompt += " Respond in " + lang + "."
	}
	if tone, err := turn.Caps.Store.GetPreference(turn.User.Email, "tone"); err == nil && tone != "" {
		prompt += " Adopt a " + tone + " tone."
	}
	return prompt
}

// handleChat is the fallback conversation path for utterances no capability
// claims. The raw utterance arrives in args["query"].
func handleChat(ctx context.Context, turn *TurnContext, args map[string]string, emit func(string)) error {
	_, err := turn.Caps.LLM.CompleteStream(ctx, chatSystemPrompt(turn), turn.History, args["query"], emit)
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	return nil
}

func handleFileQuery(ctx context.Context, turn *TurnContext, args map[string]string, emit func(string)) error {
	chunks, err := turn.Caps.Memory.RetrieveTexts(ctx, args["query"], 3)
	if err != nil {
		return fmt.Errorf("retrieve documents: %w", err)
	}
	if len(chunks) == 0 {
		emit("I couldn't find any relevant information in the uploaded files.")
		return nil
	}

	user := fmt.Sprintf(
		"Context from uploaded files:\n%s\n\nBased on the context above, answer this question: %s",
		strings.Join(chunks, "\n---\n"), args["query"],
	)
	if _, err := turn.Caps.LLM.CompleteStream(ctx, chatSystemPrompt(turn), nil, user, emit); err != nil {
		return fmt.Errorf("file query completion: %w", err)
	}
	return nil
}

func handleGoogleSearch(ctx context.Context, turn *TurnContext, args map[string]string, emit func(string)) error {
	hits, err := turn.Caps.Search.Search(ctx, args["query"])
	if err != nil {
		return fmt.Errorf("web search: %w", err)
	}
	if len(hits) == 0 {
		emit("I couldn't find any search results for that.")
		return nil
	}

	user := fmt.Sprintf(
		"Based on the following search results, please answer the user's query.\n\nSearch results:\n%s\n\nQuery: %s",
		features.FormatHits(hits), args["query"],
	)
	if _, err := turn.Caps.LLM.CompleteStream(ctx, chatSystemPrompt(turn), nil, user, emit); err != nil {
		return fmt.Errorf("search completion: %w", err)
	}
	return nil
}

func handleResearch(ctx context.Context, turn *TurnContext, args map[string]string, emit func(string)) error {
	topic := args["topic"]
	emit(fmt.Sprintf("Researching and summarizing: %s...\n", topic))

	hits, err := turn.Caps.Search.Search(ctx, topic)
	if err != nil {
		return fmt.Errorf("research search: %w", err)
	}
	if len(hits) == 0 {
		emit("I couldn't find any web pages about that topic.")
		return nil
	}

	status, err := turn.Caps.Research.Ingest(ctx, hits[0].Link)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", hits[0].Link, err)
	}
	emit(status + "\n\n")

	found, err := turn.Caps.Research.Query(ctx, topic)
	if err != nil {
		return fmt.Errorf("query scraped content: %w", err)
	}

	user := fmt.Sprintf("Summarize the following research notes about %q in a few short paragraphs:\n\n%s", topic, found)
	if _, err := turn.Caps.LLM.CompleteStream(ctx, chatSystemPrompt(turn), nil, user, emit); err != nil {
		return fmt.Errorf("research summary: %w", err)
	}
	return nil
}

func handlePlanTrip(ctx context.Context, turn *TurnContext, args map[string]string, emit func(string)) error {
	destination := args["destination"]
	emit(fmt.Sprintf(
		"Planning your %s-day %s trip to %s. This might take a moment...\n\n",
		args["duration"], args["trip_type"], destination,
	))

	itinerary, err := turn.Caps.Trips.Plan(ctx, destination, args["duration"], args["interests"], args["trip_type"])
	if err != nil {
		return fmt.Errorf("plan trip: %w", err)
	}
	emit(itinerary.Format(destination))
	return nil
}
