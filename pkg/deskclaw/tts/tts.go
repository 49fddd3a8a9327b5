// Package tts provides text-to-speech playback for DeskClaw. Synthesis
// goes through an OpenAI-compatible speech endpoint; playback runs on a
// single worker so replies are spoken in order, and the queue can be
// flushed when the user says "stop".
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTTSNotConfigured is returned when no TTS API key is set.
var ErrTTSNotConfigured = errors.New("text-to-speech not configured")

// Provider is the interface for TTS backends.
type Provider interface {
	// Synthesize converts text to audio.
	// Returns audio bytes, MIME type, and error.
	Synthesize(ctx context.Context, text, voice string) ([]byte, string, error)
}

// Config configures the speech pipeline.
type Config struct {
	// Enabled toggles spoken replies.
	Enabled bool `yaml:"enabled,omitempty"`

	// BaseURL is the OpenAI-compatible API base.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey authenticates synthesis requests.
	APIKey string `yaml:"api_key,omitempty"`

	// Model is the speech model name.
	Model string `yaml:"model,omitempty"`

	// Voice selects the synthesis voice.
	Voice string `yaml:"voice,omitempty"`
}

// OpenAIProvider implements TTS via an OpenAI-compatible speech API.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIProvider creates an OpenAI TTS provider.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "tts-1"
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Synthesize converts text to audio via the speech endpoint.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text, voice string) ([]byte, string, error) {
	if p.apiKey == "" {
		return nil, "", ErrTTSNotConfigured
	}
	if voice == "" {
		voice = "nova"
	}

	// The speech API caps input at 4096 chars.
	if len(text) > 4096 {
		text = text[:4093] + "..."
	}

	payload, err := json.Marshal(map[string]any{
		"model":           p.model,
		"input":           text,
		"voice":           voice,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, "", fmt.Errorf("tts: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("tts: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tts: API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", fmt.Errorf("tts: API returned %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("tts: reading audio: %w", err)
	}
	return audio, "audio/mpeg", nil
}

// ── Speaker ──

// Speaker queues text for spoken playback. Synthesis and playback run on
// a single background worker; Stop drains whatever is still queued.
type Speaker struct {
	provider Provider
	voice    string
	logger   *slog.Logger

	mu      sync.Mutex
	queue   chan string
	cancel  context.CancelFunc
	started bool
}

// NewSpeaker creates a speaker. provider may be nil, which makes Say a
// silent no-op so callers never need to branch on configuration.
func NewSpeaker(provider Provider, voice string, logger *slog.Logger) *Speaker {
	return &Speaker{
		provider: provider,
		voice:    voice,
		logger:   logger.With("component", "tts"),
		queue:    make(chan string, 16),
	}
}

// Start launches the playback worker.
func (s *Speaker) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.provider == nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	go s.worker(ctx)
}

// Say queues text for playback. Full queues drop the oldest entry rather
// than blocking the turn pipeline.
func (s *Speaker) Say(text string) {
	if s.provider == nil || text == "" {
		return
	}
	for {
		select {
		case s.queue <- text:
			return
		default:
			select {
			case <-s.queue:
			default:
			}
		}
	}
}

// Stop drains the queue so nothing queued is spoken.
func (s *Speaker) Stop() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

// Shutdown stops the worker.
func (s *Speaker) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.started = false
}

func (s *Speaker) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.queue:
			audio, _, err := s.provider.Synthesize(ctx, text, s.voice)
			if err != nil {
				s.logger.Warn("synthesis failed", "error", err)
				continue
			}
			if err := playAudio(ctx, audio); err != nil {
				s.logger.Warn("playback failed", "error", err)
			}
		}
	}
}

// playAudio writes the audio to a temp file and plays it with the
// platform player.
func playAudio(ctx context.Context, audio []byte) error {
	path := filepath.Join(os.TempDir(), "deskclaw-"+uuid.NewString()+".mp3")
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	defer os.Remove(path)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "afplay", path)
	case "windows":
		cmd = exec.CommandContext(ctx, "powershell", "-c",
			fmt.Sprintf("(New-Object Media.SoundPlayer %q).PlaySync()", path))
	default:
		cmd = exec.CommandContext(ctx, "mpg123", "-q", path)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}
