package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, APIKey: "test-key", Model: "test-model"}, slog.Default())
}

func TestComplete_ReturnsText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  hello from the model  "}}]}`)
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), "be nice", nil, "hi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello from the model" {
		t.Errorf("Complete = %q", got)
	}
}

func TestComplete_APIErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "", nil, "hi")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry status: %v", err)
	}
}

func TestCompleteStream_DeliversChunksInOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Once", " upon", " a time"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"%s\"}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	var chunks []string
	full, err := newTestClient(srv.URL).CompleteStream(context.Background(), "", nil, "tell a story",
		func(chunk string) { chunks = append(chunks, chunk) })
	if err != nil {
		t.Fatalf("CompleteStream: %v", err)
	}
	if full != "Once upon a time" {
		t.Errorf("accumulated = %q", full)
	}
	want := []string{"Once", " upon", " a time"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestCompleteStream_SkipsMalformedEvents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	full, err := newTestClient(srv.URL).CompleteStream(context.Background(), "", nil, "x", nil)
	if err != nil {
		t.Fatalf("CompleteStream: %v", err)
	}
	if full != "ok" {
		t.Errorf("accumulated = %q, want ok", full)
	}
}
