// Package features – imagegen.go generates images from text prompts via
// an OpenAI-compatible images endpoint and saves them locally.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrImagesNotConfigured is returned when no image API key is set.
var ErrImagesNotConfigured = errors.New("image generation not configured")

// ImageConfig configures the image generator.
type ImageConfig struct {
	// BaseURL is the OpenAI-compatible API base, e.g. https://api.openai.com/v1.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey authenticates requests.
	APIKey string `yaml:"api_key,omitempty"`

	// Model is the image model name.
	Model string `yaml:"model,omitempty"`

	// OutputDir is where generated images are saved.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// ImageGenerator creates images from prompts.
type ImageGenerator struct {
	cfg  ImageConfig
	http *http.Client
}

// NewImageGenerator creates an image generator.
func NewImageGenerator(cfg ImageConfig) *ImageGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(os.TempDir(), "deskclaw-images")
	}
	return &ImageGenerator{
		cfg: cfg,
		// Image generation is slow; allow well over the chat timeout.
		http: &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate creates an image for prompt and returns the local file path.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrImagesNotConfigured
	}

	payload, err := json.Marshal(map[string]any{
		"model":  g.cfg.Model,
		"prompt": prompt,
		"n":      1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal image request: %w", err)
	}

	endpoint := strings.TrimSuffix(g.cfg.BaseURL, "/") + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("image API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", errors.New("image API returned no image")
	}

	return g.download(ctx, result.Data[0].URL)
}

// download fetches the generated image and saves it under OutputDir with
// a random name.
func (g *ImageGenerator) download(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}

	path := filepath.Join(g.cfg.OutputDir, uuid.NewString()+".png")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save image: %w", err)
	}
	return path, nil
}
