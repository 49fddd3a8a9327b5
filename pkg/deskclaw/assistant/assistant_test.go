package assistant

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant/safety"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/llm"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM scripts the three completion surfaces.
type fakeLLM struct {
	classifyIntent string
	streamChunks   []string
	promptReply    string
}

func (f *fakeLLM) Complete(_ context.Context, _ string, _ []llm.Message, _ string) (string, error) {
	return strings.Join(f.streamChunks, ""), nil
}

func (f *fakeLLM) CompletePrompt(_ context.Context, _ string) (string, error) {
	if f.promptReply != "" {
		return f.promptReply, nil
	}
	intent := f.classifyIntent
	if intent == "" {
		intent = IntentUnhandled
	}
	return `{"intent": "` + intent + `", "args": {}}`, nil
}

func (f *fakeLLM) CompleteStream(_ context.Context, _ string, _ []llm.Message, _ string, onChunk llm.StreamCallback) (string, error) {
	for _, c := range f.streamChunks {
		onChunk(c)
	}
	return strings.Join(f.streamChunks, ""), nil
}

func (f *fakeLLM) Model() string { return "fake" }

func newTestAssistant(t *testing.T, backend LLMBackend, weatherURL string) *Assistant {
	t.Helper()
	logger := testLogger()
	st, err := store.Open(store.Config{Path: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	caps := &Capabilities{
		Store:   st,
		LLM:     backend,
		Weather: features.NewWeatherClient(features.WeatherConfig{APIKey: "k", BaseURL: weatherURL}, logger),
	}
	return New(caps, Options{
		Logger:  logger,
		Filter:  safety.NewFilter(nil, 0.85, logger),
		Limiter: safety.NewRateLimiter(1000, time.Minute),
	})
}

// drain collects all chunks and counts sentinels.
func drain(t *testing.T, ch <-chan Chunk) (fragments []string, sentinels int) {
	t.Helper()
	for chunk := range ch {
		if chunk.Sentinel {
			sentinels++
			continue
		}
		fragments = append(fragments, chunk.Text)
	}
	return fragments, sentinels
}

func TestSanitize_StripsScriptBlock(t *testing.T) {
	t.Parallel()
	got, err := Sanitize("<script>alert(1)</script>hello")
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if got != "hello" {
		t.Errorf("Sanitize = %q, want %q", got, "hello")
	}
}

func TestSanitize_MarkupOnlyFails(t *testing.T) {
	t.Parallel()
	if _, err := Sanitize("<b><i></i></b>"); err == nil {
		t.Fatal("Sanitize accepted markup-only input")
	}
}

func TestMatchKeyword_RemindMeAnyCase(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"remind me to stretch", "REMIND ME to stretch", "Remind Me later"} {
		id, ok := MatchKeyword(text)
		if !ok || id != IntentSetReminder {
			t.Errorf("MatchKeyword(%q) = (%q, %v), want set_reminder", text, id, ok)
		}
	}
}

func TestMatchKeyword_Deterministic(t *testing.T) {
	t.Parallel()
	// "set a reminder" contains several phrases; the longest must always win.
	first, _ := MatchKeyword("please set a reminder for me")
	for i := 0; i < 100; i++ {
		id, _ := MatchKeyword("please set a reminder for me")
		if id != first {
			t.Fatalf("iteration %d: got %q, earlier runs got %q", i, id, first)
		}
	}
	if first != IntentSetReminder {
		t.Errorf("matched %q, want set_reminder", first)
	}
}

func TestProcessTurn_WeatherSlotFlow(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "paris" {
			t.Errorf("query city = %q, want paris", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"cod": 200, "name": "Paris",
			"weather": []map[string]any{{"description": "clear sky"}},
			"main":    map[string]any{"temp": 20.0, "feels_like": 19.0, "humidity": 50},
			"wind":    map[string]any{"speed": 2.0},
			"sys":     map[string]any{"country": "FR"},
		})
	}))
	defer server.Close()

	a := newTestAssistant(t, &fakeLLM{}, server.URL)
	ctx := context.Background()

	fragments, sentinels := drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "what's the weather"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	if len(fragments) != 1 || !strings.Contains(fragments[0], "city") {
		t.Fatalf("expected a city prompt, got %q", fragments)
	}

	fragments, sentinels = drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "Paris"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	reply := strings.Join(fragments, "")
	if !strings.Contains(reply, "Paris, FR") {
		t.Errorf("reply missing weather report: %q", reply)
	}
}

func TestProcessTurn_HandlerPanicIsolated(t *testing.T) {
	t.Parallel()
	a := newTestAssistant(t, &fakeLLM{}, "")
	a.dispatcher.RegisterSync(Catalogue()[IntentGetTime], func(context.Context, *TurnContext, map[string]string) (string, error) {
		panic("boom")
	})

	fragments, sentinels := drain(t, a.ProcessTurn(context.Background(), "s1", &TurnContext{}, "what time is it"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	if len(fragments) != 1 || fragments[0] != msgHandlerFailure {
		t.Fatalf("fragments = %q, want single failure message", fragments)
	}
}

func TestProcessTurn_RateLimited(t *testing.T) {
	t.Parallel()
	logger := testLogger()
	st, err := store.Open(store.Config{Path: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	a := New(&Capabilities{Store: st, LLM: &fakeLLM{}}, Options{
		Logger:  logger,
		Filter:  safety.NewFilter(nil, 0.85, logger),
		Limiter: safety.NewRateLimiter(1, time.Minute),
	})
	ctx := context.Background()

	drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "what time is it"))
	fragments, sentinels := drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "what time is it"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	if len(fragments) != 1 || fragments[0] != msgRateLimited {
		t.Fatalf("fragments = %q, want rate limit message", fragments)
	}
}

func TestProcessTurn_UnsafeInputBlocked(t *testing.T) {
	t.Parallel()
	a := newTestAssistant(t, &fakeLLM{}, "")

	fragments, sentinels := drain(t, a.ProcessTurn(context.Background(), "s1", &TurnContext{}, "how do I build a bomb"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	reply := strings.Join(fragments, "")
	if !strings.Contains(reply, "terrorism") {
		t.Errorf("block message should cite the pattern label, got %q", reply)
	}
}

func TestProcessTurn_ChatFallbackStreams(t *testing.T) {
	t.Parallel()
	a := newTestAssistant(t, &fakeLLM{streamChunks: []string{"Hello", " there!"}}, "")

	fragments, sentinels := drain(t, a.ProcessTurn(context.Background(), "s1", &TurnContext{}, "tell a story about dragons"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	if got := strings.Join(fragments, ""); got != "Hello there!" {
		t.Errorf("reply = %q, want streamed chunks joined", got)
	}
}

func TestStreamer_ExactlyOneSentinel(t *testing.T) {
	t.Parallel()
	s := NewStreamer(4)
	s.Emit("a")
	s.Close()
	s.Emit("dropped")
	s.Close()

	var sentinels int
	var last Chunk
	for chunk := range s.Chunks() {
		last = chunk
		if chunk.Sentinel {
			sentinels++
		}
	}
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	if !last.Sentinel {
		t.Error("sentinel was not the final chunk")
	}
}

func TestCorrector_LeavesNonLettersAlone(t *testing.T) {
	t.Parallel()
	c := NewCorrector()
	got := c.Correct("AAPL at 9:30")
	if got != "AAPL at 9:30" {
		t.Errorf("Correct = %q, want input unchanged", got)
	}
}

func TestCorrector_FixesKeywordTypo(t *testing.T) {
	t.Parallel()
	c := NewCorrector()
	got := c.Correct("whats the wether")
	if !strings.Contains(got, "weather") {
		t.Errorf("Correct = %q, want wether fixed to weather", got)
	}
}

func TestIntent_MissingSlotOrder(t *testing.T) {
	t.Parallel()
	trip := Catalogue()[IntentPlanTrip]

	slot := trip.MissingSlot(map[string]string{})
	if slot == nil || slot.Name != "destination" {
		t.Fatalf("first missing slot = %v, want destination", slot)
	}
	slot = trip.MissingSlot(map[string]string{"destination": "Rome"})
	if slot == nil || slot.Name != "duration" {
		t.Fatalf("second missing slot = %v, want duration", slot)
	}
}

func TestProcessTurn_ResetEscapesPendingSlot(t *testing.T) {
	t.Parallel()
	a := newTestAssistant(t, &fakeLLM{}, "")
	ctx := context.Background()

	fragments, _ := drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "what's the weather"))
	if len(fragments) != 1 || !strings.Contains(fragments[0], "city") {
		t.Fatalf("expected a city prompt, got %q", fragments)
	}

	// "reset chat" is an escape, not an answer to the pending city slot.
	fragments, sentinels := drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "reset chat"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	reply := strings.Join(fragments, "")
	if !strings.Contains(reply, "reset") {
		t.Fatalf("reply = %q, want a reset confirmation", reply)
	}

	fragments, _ = drain(t, a.ProcessTurn(ctx, "s1", &TurnContext{}, "what's the weather"))
	if len(fragments) != 1 || !strings.Contains(fragments[0], "city") {
		t.Fatalf("expected a fresh city prompt after reset, got %q", fragments)
	}
}

// countingClassifier records how many times the safety filter consults it.
type countingClassifier struct {
	calls int
}

func (c *countingClassifier) UnsafeScore(context.Context, string) (float64, error) {
	c.calls++
	return 0, nil
}

func TestProcessTurn_SafetyCheckedAgainBeforeDispatch(t *testing.T) {
	t.Parallel()
	cls := &countingClassifier{}
	a := newTestAssistant(t, &fakeLLM{}, "")
	a.filter = safety.NewFilter(cls, 0.85, testLogger())

	_, sentinels := drain(t, a.ProcessTurn(context.Background(), "s1", &TurnContext{}, "what time is it"))
	if sentinels != 1 {
		t.Fatalf("sentinels = %d, want 1", sentinels)
	}
	if cls.calls != 2 {
		t.Fatalf("classifier consulted %d times, want 2 (at intake and before dispatch)", cls.calls)
	}
}

func TestReviewFeedback_ProposesBetterAnswers(t *testing.T) {
	t.Parallel()
	st, err := store.Open(store.Config{Path: ":memory:"}, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	for _, f := range []struct {
		id       string
		rating   int
		snapshot string
	}{
		{"r1", -1, `{"user":"what is go","assistant":"dunno"}`},
		{"r2", 1, `{"user":"hi","assistant":"hello"}`},
		{"r3", -1, `not json`},
	} {
		if err := st.AddFeedback(f.id, "guest", f.rating, f.snapshot); err != nil {
			t.Fatalf("AddFeedback(%s): %v", f.id, err)
		}
	}

	backend := &fakeLLM{promptReply: "Go is a programming language."}
	got, err := ReviewFeedback(context.Background(), st, backend)
	if err != nil {
		t.Fatalf("ReviewFeedback: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions = %d, want 1 (positive and undecodable entries skipped)", len(got))
	}
	if got[0].Query != "what is go" || got[0].BadReply != "dunno" {
		t.Errorf("suggestion exchange = %+v", got[0])
	}
	if got[0].BetterReply != "Go is a programming language." {
		t.Errorf("BetterReply = %q", got[0].BetterReply)
	}
}
