// Package features – search.go implements web search by scraping the
// DuckDuckGo HTML endpoint. No API key needed, which keeps search working
// out of the box.
package features

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// searchMaxResults bounds how many hits a search returns.
const searchMaxResults = 5

// userAgent identifies us as a regular browser; the HTML endpoint serves
// a captcha to empty user agents.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

// SearchHit is a single web search result.
type SearchHit struct {
	Title   string
	Link    string
	Snippet string
}

// SearchClient performs web searches.
type SearchClient struct {
	baseURL string
	http    *http.Client
}

// NewSearchClient creates a search client. baseURL may be empty for the
// public DuckDuckGo HTML endpoint.
func NewSearchClient(baseURL string) *SearchClient {
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com/html/"
	}
	return &SearchClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Search returns up to five results for query.
func (c *SearchClient) Search(ctx context.Context, query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return parseSearchResults(doc), nil
}

// FormatHits renders hits as the bulleted text the assistant replies with.
func FormatHits(hits []SearchHit) string {
	if len(hits) == 0 {
		return "I couldn't find any results for that."
	}
	var b strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&b, "- %s\n  %s\n", hit.Title, hit.Link)
		if hit.Snippet != "" {
			fmt.Fprintf(&b, "  %s\n", hit.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseSearchResults walks the result page looking for the result anchor
// and snippet classes DuckDuckGo's HTML endpoint uses.
func parseSearchResults(doc *html.Node) []SearchHit {
	var hits []SearchHit
	var current *SearchHit

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(hits) >= searchMaxResults && current == nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				if current != nil {
					hits = append(hits, *current)
				}
				current = &SearchHit{
					Title: strings.TrimSpace(nodeText(n)),
					Link:  cleanResultURL(attr(n, "href")),
				}
				return
			case strings.Contains(class, "result__snippet") && current != nil:
				current.Snippet = truncateSnippet(strings.TrimSpace(nodeText(n)), 200)
				hits = append(hits, *current)
				current = nil
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if current != nil && len(hits) < searchMaxResults {
		hits = append(hits, *current)
	}
	if len(hits) > searchMaxResults {
		hits = hits[:searchMaxResults]
	}
	return hits
}

// cleanResultURL unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=<url>).
func cleanResultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if unwrapped, err := url.QueryUnescape(uddg); err == nil {
			return unwrapped
		}
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func truncateSnippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
