// Package memory – embeddings.go defines the embedding provider abstraction
// used by the retrieval store. The default provider speaks the
// OpenAI-compatible /embeddings endpoint; a deterministic hash-based
// provider keeps retrieval functional with no API key (degraded quality,
// but stable and offline).
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// EmbeddingProvider converts text into dense vectors for similarity search.
type EmbeddingProvider interface {
	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size this provider produces.
	Dimensions() int

	// Name identifies the provider ("openai", "hash").
	Name() string
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the backend: "openai" or "hash" (default: auto —
	// openai when an API key is available, hash otherwise).
	Provider string `yaml:"provider"`

	// BaseURL is the OpenAI-compatible endpoint root.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates embedding requests.
	APIKey string `yaml:"api_key"`

	// Model is the embedding model (default: text-embedding-3-small).
	Model string `yaml:"model"`

	// Dimensions is the vector size (default: 1536 for openai, 256 for hash).
	Dimensions int `yaml:"dimensions"`
}

// NewEmbeddingProvider builds a provider from config. With no API key the
// hash provider is used so indexing and retrieval still work offline.
func NewEmbeddingProvider(cfg EmbeddingConfig) EmbeddingProvider {
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimensions)
	case "openai":
		return NewOpenAIEmbedder(cfg)
	default:
		if cfg.APIKey != "" {
			return NewOpenAIEmbedder(cfg)
		}
		return NewHashEmbedder(cfg.Dimensions)
	}
}

// ---------- OpenAI-compatible provider ----------

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// NewOpenAIEmbedder creates an embedder for an OpenAI-compatible API.
func NewOpenAIEmbedder(cfg EmbeddingConfig) *OpenAIEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 1536
	}
	return &OpenAIEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: dims,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed API error (status %d): %s", resp.StatusCode, string(body))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if len(er.Data) != len(texts) {
		return nil, fmt.Errorf("embed count mismatch: got %d, want %d", len(er.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embed index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the configured vector size.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// Name returns "openai".
func (e *OpenAIEmbedder) Name() string { return "openai" }

// ---------- Hash provider ----------

// HashEmbedder produces deterministic pseudo-embeddings from token hashes.
// Quality is far below a real model, but similar texts share tokens and
// therefore land near each other, which is enough for the offline path
// and for tests.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a hash-based embedder.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed maps each text to a normalized bag-of-hashed-tokens vector.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dimensions)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			sum := sha256.Sum256([]byte(tok))
			idx := binary.BigEndian.Uint32(sum[:4]) % uint32(e.dimensions)
			vec[idx]++
		}
		normalize(vec)
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the vector size.
func (e *HashEmbedder) Dimensions() int { return e.dimensions }

// Name returns "hash".
func (e *HashEmbedder) Name() string { return "hash" }

// normalize scales a vector to unit length in place.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// cosine returns the cosine similarity of two vectors, 0 when sizes differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
