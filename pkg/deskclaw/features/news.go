// Package features – news.go fetches topic headlines from a
// NewsAPI-compatible endpoint.
package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNewsNotConfigured is returned when no News API key is set.
var ErrNewsNotConfigured = errors.New("news API key not configured")

// newsMaxArticles bounds how many headlines a reply contains.
const newsMaxArticles = 5

// NewsClient fetches headlines for a topic.
type NewsClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewNewsClient creates a news client. baseURL may be empty for the
// public NewsAPI endpoint.
func NewNewsClient(apiKey, baseURL string) *NewsClient {
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2"
	}
	return &NewsClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Headlines returns up to five formatted headlines about topic.
func (c *NewsClient) Headlines(ctx context.Context, topic string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNewsNotConfigured
	}

	endpoint := fmt.Sprintf("%s/everything?q=%s&apiKey=%s",
		c.baseURL, url.QueryEscape(topic), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build news request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("news API returned status %d", resp.StatusCode)
	}

	var data struct {
		Articles []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode news response: %w", err)
	}
	if len(data.Articles) == 0 {
		return fmt.Sprintf("I couldn't find any news articles on %s.", topic), nil
	}

	var b strings.Builder
	for i, article := range data.Articles {
		if i >= newsMaxArticles {
			break
		}
		fmt.Fprintf(&b, "- %s\n  %s\n", article.Title, article.URL)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
