// Package features – webresearch.go scrapes a webpage, extracts its
// visible text and indexes it into the retrieval store so follow-up
// questions can be answered from the page content.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Indexer is the slice of the retrieval store web research needs.
type Indexer interface {
	IndexDocument(ctx context.Context, docID, content string) error
	RetrieveTexts(ctx context.Context, query string, k int) ([]string, error)
}

// WebResearcher scrapes and indexes webpages for later querying.
type WebResearcher struct {
	store  Indexer
	http   *http.Client
	logger *slog.Logger
}

// NewWebResearcher creates a web researcher backed by store.
func NewWebResearcher(store Indexer, logger *slog.Logger) *WebResearcher {
	return &WebResearcher{
		store:  store,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger.With("component", "webresearch"),
	}
}

// Ingest fetches pageURL, extracts its visible text and indexes it.
func (r *WebResearcher) Ingest(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	text := ExtractVisibleText(doc)
	if text == "" {
		return "", fmt.Errorf("no readable text found on %s", pageURL)
	}

	if err := r.store.IndexDocument(ctx, pageURL, text); err != nil {
		return "", fmt.Errorf("index %s: %w", pageURL, err)
	}

	r.logger.Info("page indexed", "url", pageURL, "chars", len(text))
	return fmt.Sprintf("Successfully scraped and stored content from %s", pageURL), nil
}

// Query answers a question from previously indexed page content.
func (r *WebResearcher) Query(ctx context.Context, question string) (string, error) {
	chunks, err := r.store.RetrieveTexts(ctx, question, 3)
	if err != nil {
		return "", fmt.Errorf("retrieve page content: %w", err)
	}
	if len(chunks) == 0 {
		return "I couldn't find any relevant information in the scraped web content.", nil
	}

	var b strings.Builder
	b.WriteString("Here's what I found about your query:\n\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, chunk)
	}
	return strings.TrimSpace(b.String()), nil
}

// ExtractVisibleText collects the text content of a parsed HTML document,
// skipping script and style blocks, joined by paragraph breaks so the
// retrieval store can chunk it naturally.
func ExtractVisibleText(doc *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return strings.Join(parts, "\n\n")
}
