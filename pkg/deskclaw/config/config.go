// Package config defines the DeskClaw configuration file and its defaults.
// One YAML file covers the model backend, every feature client and the
// safety knobs; feature sections left empty leave that feature in a
// "not configured" state rather than failing startup.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant/memory"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/llm"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/tts"
)

// SafetyConfig tunes the content filter and rate limiter.
type SafetyConfig struct {
	// UnsafeThreshold is the classifier score above which input is blocked.
	UnsafeThreshold float64 `yaml:"unsafe_threshold"`

	// MaxRequests per window per user.
	MaxRequests int `yaml:"max_requests"`

	// WindowSeconds is the sliding rate-limit window length.
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the rate-limit window as a duration.
func (s SafetyConfig) Window() time.Duration {
	return time.Duration(s.WindowSeconds) * time.Second
}

// NewsConfig configures the headlines client.
type NewsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// StocksConfig configures the quote client.
type StocksConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SearchConfig configures the web search client.
type SearchConfig struct {
	BaseURL string `yaml:"base_url"`
}

// MemoryConfig locates the document index and its embedding backend.
type MemoryConfig struct {
	// Path is the retrieval database, separate from the app store.
	Path string `yaml:"path"`

	Embeddings memory.EmbeddingConfig `yaml:"embeddings"`
}

// Config is the root of config.yaml.
type Config struct {
	LLM     llm.Config             `yaml:"llm"`
	Weather features.WeatherConfig `yaml:"weather"`
	News    NewsConfig             `yaml:"news"`
	Stocks  StocksConfig           `yaml:"stocks"`
	Search  SearchConfig           `yaml:"search"`
	Email   features.EmailConfig   `yaml:"email"`
	Images  features.ImageConfig   `yaml:"images"`
	TTS     tts.Config             `yaml:"tts"`
	Store   store.Config           `yaml:"store"`
	Memory  MemoryConfig           `yaml:"memory"`
	Safety  SafetyConfig           `yaml:"safety"`

	// SystemPrompt overrides the default chat persona.
	SystemPrompt string `yaml:"system_prompt"`
}

// Default returns a config with every tunable at its default. API keys
// stay empty; they come from the keyring, environment or the file itself.
func Default() *Config {
	home := DataDir()
	return &Config{
		LLM: llm.Config{}.Effective(),
		Safety: SafetyConfig{
			UnsafeThreshold: 0.85,
			MaxRequests:     10,
			WindowSeconds:   60,
		},
		Store: store.Config{Path: filepath.Join(home, "deskclaw.db")}.Effective(),
		Memory: MemoryConfig{
			Path: filepath.Join(home, "memory.db"),
		},
	}
}

// DataDir returns the per-user data directory, creating it if needed.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	dir := filepath.Join(home, ".deskclaw")
	_ = os.MkdirAll(dir, 0o700)
	return dir
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// SessionPath is where the login session token lives.
func SessionPath() string {
	return filepath.Join(DataDir(), "session.json")
}
