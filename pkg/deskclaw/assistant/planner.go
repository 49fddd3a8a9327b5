// Package assistant – planner.go runs one utterance through the gate
// sequence: sanitize, spell-correct, safety, rate limit, slot context,
// routing, slot validation, dispatch. Every gate either passes the turn
// along or answers it with a single terminal message; nothing past a
// failed gate runs.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
)

const (
	msgBlockedInput   = "Your message was blocked because it contained unsafe or disallowed content."
	msgRateLimited    = "You're sending messages too quickly. Please wait a moment and try again."
	msgHandlerFailure = "I'm sorry, something went wrong while handling that. Please try again."
)

// Keyword hits carry arguments inline; these pull them out of the raw
// utterance so the slot gate does not re-ask for what was already said.
var (
	imagePromptRe  = regexp.MustCompile(`(?i)(?:generate|create)\s+(?:an?\s+)?image(?:\s+(?:of|for|with))?\s+(.+)`)
	weatherCityRe  = regexp.MustCompile(`(?i)weather\s+(?:in|for|at)\s+([a-zA-Z][a-zA-Z .'-]*)`)
	weatherLocalRe = regexp.MustCompile(`(?i)\b(today|here|outside|my location)\b`)
)

func (a *Assistant) executeTurn(ctx context.Context, sessionKey string, turn *TurnContext, raw string, emit func(string)) {
	text, err := Sanitize(raw)
	if err != nil {
		emit(msgBlockedInput)
		return
	}

	// A pending slot consumes the answer verbatim; correcting it would
	// mangle proper nouns like city names.
	uc := a.contextFor(sessionKey)
	if !uc.Awaiting() {
		text = a.corrector.Correct(text)
	}

	if verdict := a.filter.Check(ctx, text); !verdict.Safe {
		emit(fmt.Sprintf("I'm sorry, I can't help with that. (blocked: %s)", verdict.Reason))
		return
	}

	if !a.limiter.Allow(turn.UserEmail()) {
		emit(msgRateLimited)
		return
	}

	intentID, args := a.route(ctx, uc, text)
	if args == nil {
		args = make(map[string]string)
	}

	intent, ok := a.dispatcher.Intent(intentID)
	if !ok {
		// Classifier drift; fall back to plain chat.
		a.logger.Warn("unroutable intent, falling back to chat", "intent", intentID)
		intentID = IntentUnhandled
		intent, _ = a.dispatcher.Intent(intentID)
		args = map[string]string{}
	}
	if intentID == IntentUnhandled {
		args["query"] = text
	}
	a.applySlotDefaults(ctx, intentID, turn, args, text)

	if slot := intent.MissingSlot(args); slot != nil {
		uc.BeginAwait(intentID, slot.Name, args)
		emit(slot.Prompt)
		return
	}
	uc.Reset()

	if turn.User != nil {
		if err := a.caps.Store.AppendQuery(turn.User.Email, text); err != nil {
			a.logger.Warn("append query failed", "error", err)
		}
	}
	if intentID == IntentResetChat {
		a.clearSession(sessionKey)
		turn.History = nil
	}

	// The safety filter runs a second time right before dispatch, after
	// routing and slot filling have settled what will actually execute.
	if verdict := a.filter.Check(ctx, text); !verdict.Safe {
		emit(fmt.Sprintf("I'm sorry, I can't help with that. (blocked: %s)", verdict.Reason))
		return
	}

	a.dispatchSafely(ctx, intentID, turn, args, emit)
}

// route decides which intent owns text: a pending slot consumes the turn
// verbatim, otherwise keywords take priority over the classifier. An
// explicit reset escapes a pending slot instead of being consumed as the
// slot value.
func (a *Assistant) route(ctx context.Context, uc *UtteranceContext, text string) (string, map[string]string) {
	if uc.Awaiting() {
		if id, ok := MatchKeyword(text); ok && id == IntentResetChat {
			uc.Reset()
			return id, nil
		}
		return uc.FillPending(text)
	}
	if id, ok := MatchKeyword(text); ok {
		return id, extractKeywordArgs(id, text)
	}
	return a.classifier.Classify(ctx, text)
}

// extractKeywordArgs pulls inline arguments out of a keyword-routed
// utterance. Intents not listed here collect everything via slot prompts.
func extractKeywordArgs(intentID, text string) map[string]string {
	args := make(map[string]string)
	switch intentID {
	case IntentOpenWebsite:
		if url, ok := features.ResolveWebsiteURL(text); ok {
			args["url"] = url
		}
	case IntentGenerateImage:
		if m := imagePromptRe.FindStringSubmatch(text); m != nil {
			args["prompt"] = strings.TrimSpace(m[1])
		}
	case IntentWeather:
		if m := weatherCityRe.FindStringSubmatch(text); m != nil {
			args["city"] = strings.TrimSpace(m[1])
		}
	}
	return args
}

// applySlotDefaults fills slots the user's stored data can answer, so
// nobody is prompted for what is already known: the weather city comes
// from the default_city preference, or from IP geolocation when the
// utterance asked about "here"/"today".
func (a *Assistant) applySlotDefaults(ctx context.Context, intentID string, turn *TurnContext, args map[string]string, text string) {
	if intentID != IntentWeather || args["city"] != "" {
		return
	}
	if turn.User != nil {
		if city, err := a.caps.Store.GetPreference(turn.User.Email, "default_city"); err == nil && city != "" {
			args["city"] = city
			return
		}
	}
	if weatherLocalRe.MatchString(text) {
		if city, _, err := a.caps.Weather.Geolocate(ctx); err == nil && city != "" {
			args["city"] = city
		}
	}
}

// dispatchSafely runs the handler and converts panics and errors into a
// single apologetic fragment. The sentinel is appended by the caller's
// streamer either way.
func (a *Assistant) dispatchSafely(ctx context.Context, intentID string, turn *TurnContext, args map[string]string, emit func(string)) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("handler panicked", "intent", intentID, "panic", r)
			emit(msgHandlerFailure)
		}
	}()

	if err := a.dispatcher.Dispatch(ctx, intentID, turn, args, emit); err != nil {
		a.logger.Error("handler failed", "intent", intentID, "error", err)
		emit(msgHandlerFailure)
	}
}
