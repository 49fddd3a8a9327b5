// Package llm implements the generative backend client for DeskClaw.
// It speaks the OpenAI-compatible chat completions protocol, in both
// streaming (SSE) and non-streaming form. The assistant core treats this
// client as a black box: any failure degrades to "no answer" and is
// converted to an apology at the planning boundary.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// StreamCallback receives text deltas as they arrive from the provider.
type StreamCallback func(chunk string)

// Message is one entry in the chat transcript sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the LLM provider configuration.
type Config struct {
	// BaseURL is the OpenAI-compatible endpoint root (default: https://api.openai.com/v1).
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests. Resolved via keyring/env before use.
	APIKey string `yaml:"api_key"`

	// Model is the chat model identifier (e.g. "gpt-4o-mini").
	Model string `yaml:"model"`

	// MaxTokens caps the completion length (0 = let the server decide).
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls sampling (0 = provider default).
	Temperature float64 `yaml:"temperature"`
}

// Effective returns a copy with defaults filled in for zero values.
func (c Config) Effective() Config {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = "https://api.openai.com/v1"
	}
	if out.Model == "" {
		out.Model = "gpt-4o-mini"
	}
	return out
}

// Client handles communication with the LLM provider API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	temp       float64
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new LLM client from config.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.Effective()
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		temp:      cfg.Temperature,
		httpClient: &http.Client{
			// No global timeout — each call carries its own context deadline.
			// A client-level timeout would race with long streaming responses.
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   5,
				IdleConnTimeout:       120 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
		logger: logger.With("component", "llm"),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// chatRequest is the OpenAI-compatible chat completions request.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// chatResponse is the non-streaming completion response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// streamChunk is one SSE delta event.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// apiError carries the HTTP status for retry classification.
type apiError struct {
	statusCode int
	body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.statusCode, truncate(e.body, 200))
}

// buildMessages assembles the transcript: system prompt, prior history,
// then the current user message.
func buildMessages(system string, history []Message, user string) []Message {
	messages := make([]Message, 0, len(history)+2)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: user})
	return messages
}

// Complete performs a non-streaming chat completion and returns the full text.
func (c *Client) Complete(ctx context.Context, system string, history []Message, user string) (string, error) {
	return c.complete(ctx, buildMessages(system, history, user))
}

// CompletePrompt is a single-shot completion with no history, used by the
// intent classifier and the trip planner.
func (c *Client) CompletePrompt(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []Message{{Role: "user", Content: prompt}})
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	body, err := c.doRequest(ctx, chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.tempParam(),
		MaxTokens:   c.maxTokensParam(),
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp chatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from provider")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleteStream performs a streaming chat completion, invoking onChunk for
// each text delta, and returns the accumulated full text.
func (c *Client) CompleteStream(ctx context.Context, system string, history []Message, user string, onChunk StreamCallback) (string, error) {
	body, err := c.doRequest(ctx, chatRequest{
		Model:       c.model,
		Messages:    buildMessages(system, history, user),
		Stream:      true,
		Temperature: c.tempParam(),
		MaxTokens:   c.maxTokensParam(),
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Skip malformed keep-alive or vendor-specific events.
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				full.WriteString(choice.Delta.Content)
				if onChunk != nil {
					onChunk(choice.Delta.Content)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("reading stream: %w", err)
	}
	return full.String(), nil
}

// doRequest sends the chat request and returns the response body on 200.
func (c *Client) doRequest(ctx context.Context, reqBody chatRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if reqBody.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &apiError{statusCode: resp.StatusCode, body: string(body)}
	}

	c.logger.Debug("LLM request accepted",
		"model", reqBody.Model,
		"stream", reqBody.Stream,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return resp.Body, nil
}

func (c *Client) tempParam() *float64 {
	if c.temp <= 0 {
		return nil
	}
	t := c.temp
	return &t
}

func (c *Client) maxTokensParam() *int {
	if c.maxTokens <= 0 {
		return nil
	}
	n := c.maxTokens
	return &n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
