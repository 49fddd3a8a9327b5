package features

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/html"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWeather_FormatsReport(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "london" {
			t.Errorf("query city = %q, want london", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"cod":     200,
			"name":    "London",
			"weather": []map[string]any{{"description": "light rain"}},
			"main":    map[string]any{"temp": 14.2, "feels_like": 13.0, "humidity": 82},
			"wind":    map[string]any{"speed": 4.5},
			"sys":     map[string]any{"country": "GB"},
		})
	}))
	defer server.Close()

	client := NewWeatherClient(WeatherConfig{APIKey: "k", BaseURL: server.URL}, testLogger())
	report, err := client.Current(context.Background(), "London", "")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	for _, want := range []string{"London, GB", "Light rain", "14.2°C", "82%"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestWeather_CachesWithinTTL(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"cod": 200, "name": "Paris",
			"weather": []map[string]any{{"description": "clear sky"}},
			"main":    map[string]any{"temp": 20.0, "feels_like": 19.0, "humidity": 50},
			"wind":    map[string]any{"speed": 2.0},
			"sys":     map[string]any{"country": "FR"},
		})
	}))
	defer server.Close()

	client := NewWeatherClient(WeatherConfig{APIKey: "k", BaseURL: server.URL}, testLogger())
	now := time.Now()
	client.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := client.Current(context.Background(), "Paris", ""); err != nil {
			t.Fatalf("Current %d: %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("API calls = %d, want 1 (cached)", calls.Load())
	}

	// Advance the clock past the TTL: the cache entry must expire.
	now = now.Add(weatherCacheTTL + time.Second)
	if _, err := client.Current(context.Background(), "Paris", ""); err != nil {
		t.Fatalf("Current after expiry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("API calls = %d, want 2 after TTL expiry", calls.Load())
	}
}

func TestWeather_EmptyCityIsErrNoCity(t *testing.T) {
	t.Parallel()
	client := NewWeatherClient(WeatherConfig{APIKey: "k"}, testLogger())
	if _, err := client.Current(context.Background(), "   ", ""); err != ErrNoCity {
		t.Errorf("err = %v, want ErrNoCity", err)
	}
}

func TestWeather_UnknownCity(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"cod": "404", "message": "city not found"})
	}))
	defer server.Close()

	client := NewWeatherClient(WeatherConfig{APIKey: "k", BaseURL: server.URL}, testLogger())
	if _, err := client.Current(context.Background(), "Atlantis", ""); err == nil {
		t.Fatal("expected error for unknown city")
	}
}

func TestNews_TopFiveOnly(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		articles := make([]map[string]string, 8)
		for i := range articles {
			articles[i] = map[string]string{
				"title": "Headline",
				"url":   "https://example.com/a",
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"articles": articles})
	}))
	defer server.Close()

	client := NewNewsClient("k", server.URL)
	out, err := client.Headlines(context.Background(), "go")
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if got := strings.Count(out, "- Headline"); got != 5 {
		t.Errorf("headline count = %d, want 5", got)
	}
}

func TestNews_MissingKey(t *testing.T) {
	t.Parallel()
	client := NewNewsClient("", "")
	if _, err := client.Headlines(context.Background(), "go"); err != ErrNewsNotConfigured {
		t.Errorf("err = %v, want ErrNewsNotConfigured", err)
	}
}

func TestStock_Price(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"Global Quote": map[string]string{"01. symbol": "AAPL", "05. price": "187.4400"},
		})
	}))
	defer server.Close()

	client := NewStockClient("k", server.URL)
	out, err := client.Price(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if out != "The current price of AAPL is $187.4400." {
		t.Errorf("Price = %q", out)
	}
}

func TestStock_UnknownSymbol(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"Global Quote": map[string]string{}})
	}))
	defer server.Close()

	client := NewStockClient("k", server.URL)
	out, err := client.Price(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if !strings.Contains(out, "couldn't find") {
		t.Errorf("Price = %q, want a not-found message", out)
	}
}

const searchPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The Go Programming Language</a>
  <a class="result__snippet" href="#">Go is an open source programming language.</a>
</div>
<div class="result">
  <a class="result__a" href="https://golang.org/doc">Documentation</a>
  <a class="result__snippet" href="#">Learn how to use Go.</a>
</div>
</body></html>`

func TestSearch_ParsesResults(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		io.WriteString(w, searchPage)
	}))
	defer server.Close()

	client := NewSearchClient(server.URL)
	hits, err := client.Search(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Title != "The Go Programming Language" {
		t.Errorf("title = %q", hits[0].Title)
	}
	if hits[0].Link != "https://go.dev/" {
		t.Errorf("redirect link not unwrapped: %q", hits[0].Link)
	}
	if hits[0].Snippet != "Go is an open source programming language." {
		t.Errorf("snippet = %q", hits[0].Snippet)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Parallel()
	client := NewSearchClient("http://unused.invalid")
	hits, err := client.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %v, want nil", hits)
	}
}

func TestExtractVisibleText_SkipsScripts(t *testing.T) {
	t.Parallel()
	doc, err := html.Parse(strings.NewReader(
		`<html><head><style>p{}</style></head><body><script>var x=1;</script><p>Hello</p><p>World</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	text := ExtractVisibleText(doc)
	if strings.Contains(text, "var x") || strings.Contains(text, "p{}") {
		t.Errorf("script/style leaked into text: %q", text)
	}
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Errorf("visible text missing: %q", text)
	}
}

func TestFixJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"markdown fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"trailing comma object", `{"a": 1,}`, `{"a": 1}`},
		{"trailing comma array", `[1, 2,]`, `[1, 2]`},
		{"clean passthrough", `{"a": 1}`, `{"a": 1}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FixJSON(tt.input); got != tt.want {
				t.Errorf("FixJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeItinerary(t *testing.T) {
	t.Parallel()
	raw := "```json\n{\"itinerary\": [{\"day\": 1, \"morning\": \"Museum\", \"afternoon\": \"Park\", \"evening\": \"Dinner\",}]}\n```"
	it, err := DecodeItinerary(raw)
	if err != nil {
		t.Fatalf("DecodeItinerary: %v", err)
	}
	if len(it.Days) != 1 || it.Days[0].Morning != "Museum" {
		t.Errorf("itinerary = %+v", it)
	}
}

func TestDecodeItinerary_Malformed(t *testing.T) {
	t.Parallel()
	if _, err := DecodeItinerary("sorry, I can't do that"); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}

func TestResolveWebsiteURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"open google", "https://www.google.com", true},
		{"open google.com", "https://google.com", true},
		{"please open news.ycombinator.com", "https://news.ycombinator.com", true},
		{"close everything", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveWebsiteURL(tt.query)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ResolveWebsiteURL(%q) = (%q, %v), want (%q, %v)", tt.query, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGreeting_ByHour(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hour int
		want string
	}{
		{6, "Good Morning"},
		{13, "Good Afternoon"},
		{19, "Good Evening"},
		{23, "Good Night"},
	}
	for _, tt := range tests {
		at := time.Date(2026, 1, 1, tt.hour, 0, 0, 0, time.UTC)
		got := Greeting(at, "Alex")
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("Greeting(hour=%d) = %q, want prefix %q", tt.hour, got, tt.want)
		}
		if !strings.Contains(got, "Alex") {
			t.Errorf("Greeting should include the name: %q", got)
		}
	}
}
