// Package assistant – assistant.go wires the conversational pipeline
// together: capabilities, intent routing, per-session utterance context
// and chat history. The presentation layer (CLI, voice) only ever calls
// ProcessTurn and drains the chunk channel it returns.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant/safety"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/llm"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// LLMBackend is the completion surface the assistant depends on. *llm.Client
// satisfies it; tests substitute scripted fakes.
type LLMBackend interface {
	Complete(ctx context.Context, system string, history []llm.Message, user string) (string, error)
	CompletePrompt(ctx context.Context, prompt string) (string, error)
	CompleteStream(ctx context.Context, system string, history []llm.Message, user string, onChunk llm.StreamCallback) (string, error)
	Model() string
}

// Capabilities bundles the external collaborators handlers draw on. Nil
// optional fields degrade to "not configured" replies from the feature
// clients themselves.
type Capabilities struct {
	Store    *store.Store
	LLM      LLMBackend
	Memory   features.Indexer
	Weather  *features.WeatherClient
	News     *features.NewsClient
	Stock    *features.StockClient
	Search   *features.SearchClient
	Research *features.WebResearcher
	Images   *features.ImageGenerator
	Trips    *features.TripPlanner
	Mailer   *features.Mailer

	// SystemPrompt overrides the default chat persona when non-empty.
	SystemPrompt string

	imageQuota *imageQuota
}

// Options carries the tunable collaborators. Zero value gets sensible
// defaults from New.
type Options struct {
	Logger  *slog.Logger
	Filter  *safety.Filter
	Limiter *safety.RateLimiter
	Now     func() time.Time

	// ChunkBuffer sizes the per-turn output channel.
	ChunkBuffer int
}

// Assistant routes user utterances to capability handlers.
type Assistant struct {
	caps       *Capabilities
	dispatcher *Dispatcher
	classifier *Classifier
	corrector  *Corrector
	filter     *safety.Filter
	limiter    *safety.RateLimiter
	logger     *slog.Logger
	now        func() time.Time
	buffer     int

	mu           sync.Mutex
	contexts     map[string]*UtteranceContext
	guestHistory map[string][]llm.Message
}

// New builds an assistant over caps. The catalogue is registered in full;
// every declared intent has exactly one handler.
func New(caps *Capabilities, opts Options) *Assistant {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "assistant")

	if opts.Filter == nil {
		opts.Filter = safety.NewFilter(safety.NewLLMClassifier(caps.LLM), safety.DefaultUnsafeThreshold, opts.Logger)
	}
	if opts.Limiter == nil {
		opts.Limiter = safety.NewRateLimiter(0, 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ChunkBuffer <= 0 {
		opts.ChunkBuffer = 64
	}
	caps.imageQuota = newImageQuota()

	a := &Assistant{
		caps:         caps,
		dispatcher:   NewDispatcher(),
		classifier:   NewClassifier(caps.LLM, Catalogue(), opts.Logger),
		corrector:    NewCorrector(),
		filter:       opts.Filter,
		limiter:      opts.Limiter,
		logger:       logger,
		now:          opts.Now,
		buffer:       opts.ChunkBuffer,
		contexts:     make(map[string]*UtteranceContext),
		guestHistory: make(map[string][]llm.Message),
	}
	a.registerRoutes()
	return a
}

func (a *Assistant) registerRoutes() {
	cat := Catalogue()

	syncRoutes := map[string]SyncHandler{
		IntentGreet:          handleGreet,
		IntentGetTime:        handleGetTime,
		IntentResetChat:      handleResetChat,
		IntentStopSpeech:     handleStopSpeech,
		IntentWeather:        handleWeather,
		IntentGetNews:        handleGetNews,
		IntentGetStockPrice:  handleGetStockPrice,
		IntentGenerateImage:  handleGenerateImage,
		IntentOpenWebsite:    handleOpenWebsite,
		IntentCloseWebsite:   handleCloseWebsite,
		IntentSetReminder:    handleSetReminder,
		IntentShowReminders:  handleShowReminders,
		IntentDeleteReminder: handleDeleteReminder,
		IntentSetLanguage:    handleSetLanguage,
		IntentSetTone:        handleSetTone,
		IntentSetDefaultCity: handleSetDefaultCity,
		IntentSetInterests:   handleSetInterests,
		IntentSetGoal:        handleSetGoal,
		IntentShowGoals:      handleShowGoals,
		IntentCompleteGoal:   handleCompleteGoal,
		IntentAbandonGoal:    handleAbandonGoal,
		IntentAddTask:        handleAddTask,
		IntentShowTasks:      handleShowTasks,
		IntentCompleteTask:   handleCompleteTask,
		IntentGetUserDetails: handleGetUserDetails,
		IntentSendEmail:      handleSendEmail,
		IntentResearchPage:   handleResearchPage,
	}
	streamRoutes := map[string]StreamHandler{
		IntentUnhandled:    handleChat,
		IntentFileQuery:    handleFileQuery,
		IntentGoogleSearch: handleGoogleSearch,
		IntentResearch:     handleResearch,
		IntentPlanTrip:     handlePlanTrip,
	}

	for id, h := range syncRoutes {
		a.dispatcher.RegisterSync(cat[id], h)
	}
	for id, h := range streamRoutes {
		a.dispatcher.RegisterStream(cat[id], h)
	}
}

// SessionKey returns the storage key for today's conversation. Sessions
// roll over at local midnight.
func (a *Assistant) SessionKey() string {
	return a.now().Format("2006-01-02")
}

// ProcessTurn runs one utterance through the pipeline and returns the
// channel of reply chunks. The channel always carries exactly one final
// sentinel chunk, whatever happens inside: the caller may range over it
// without further coordination.
func (a *Assistant) ProcessTurn(ctx context.Context, sessionKey string, turn *TurnContext, raw string) <-chan Chunk {
	turn.Caps = a.caps
	if turn.Now == nil {
		turn.Now = a.now
	}
	if turn.History == nil {
		turn.History = a.historyFor(turn, sessionKey)
	}

	streamer := NewStreamer(a.buffer)
	go func() {
		defer streamer.Close()

		var reply []string
		emit := func(text string) {
			reply = append(reply, text)
			streamer.Emit(text)
		}

		a.executeTurn(ctx, sessionKey, turn, raw, emit)
		a.recordExchange(turn, sessionKey, raw, strings.Join(reply, ""))
	}()
	return streamer.Chunks()
}

// contextFor returns the slot-filling context for sessionKey, creating it
// on first use.
func (a *Assistant) contextFor(sessionKey string) *UtteranceContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	uc, ok := a.contexts[sessionKey]
	if !ok {
		uc = NewUtteranceContext()
		a.contexts[sessionKey] = uc
	}
	return uc
}

// historyFor loads the prior conversation: from the store for logged-in
// users, from process memory for guests.
func (a *Assistant) historyFor(turn *TurnContext, sessionKey string) []llm.Message {
	if turn.User == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		hist := a.guestHistory[sessionKey]
		out := make([]llm.Message, len(hist))
		copy(out, hist)
		return out
	}

	sessionID, err := a.caps.Store.GetOrCreateSession(turn.User.Email, sessionKey)
	if err != nil {
		a.logger.Warn("load session failed", "error", err)
		return nil
	}
	msgs, err := a.caps.Store.ChatHistory(sessionID)
	if err != nil {
		a.logger.Warn("load history failed", "error", err)
		return nil
	}

	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// recordExchange persists the user utterance and the assembled reply.
func (a *Assistant) recordExchange(turn *TurnContext, sessionKey, userText, reply string) {
	if reply == "" {
		return
	}

	if turn.User == nil {
		a.mu.Lock()
		a.guestHistory[sessionKey] = append(a.guestHistory[sessionKey],
			llm.Message{Role: "user", Content: userText},
			llm.Message{Role: "assistant", Content: reply},
		)
		a.mu.Unlock()
		return
	}

	sessionID, err := a.caps.Store.GetOrCreateSession(turn.User.Email, sessionKey)
	if err != nil {
		a.logger.Warn("record session failed", "error", err)
		return
	}
	if err := a.caps.Store.AddMessage(sessionID, "user", userText); err != nil {
		a.logger.Warn("record user message failed", "error", err)
	}
	if err := a.caps.Store.AddMessage(sessionID, "assistant", reply); err != nil {
		a.logger.Warn("record reply failed", "error", err)
	}
}

// clearSession drops the slot context and the guest transcript for
// sessionKey. Store-backed history is left intact; a reset starts a fresh
// screen, not an erased record.
func (a *Assistant) clearSession(sessionKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if uc, ok := a.contexts[sessionKey]; ok {
		uc.Reset()
	}
	delete(a.guestHistory, sessionKey)
}
