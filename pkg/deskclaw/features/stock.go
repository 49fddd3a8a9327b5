// Package features – stock.go fetches stock quotes from an Alpha
// Vantage-compatible endpoint.
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

// ErrStockNotConfigured is returned when no Alpha Vantage key is set.
var ErrStockNotConfigured = errors.New("stock API key not configured")

// StockClient fetches global quotes for ticker symbols.
type StockClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewStockClient creates a stock client. baseURL may be empty for the
// public Alpha Vantage endpoint.
func NewStockClient(apiKey, baseURL string) *StockClient {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &StockClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Price returns a one-line quote for symbol.
func (c *StockClient) Price(ctx context.Context, symbol string) (string, error) {
	if c.apiKey == "" {
		return "", ErrStockNotConfigured
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build stock request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("stock request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stock API returned status %d", resp.StatusCode)
	}

	var data struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode stock response: %w", err)
	}

	price := data.GlobalQuote["05. price"]
	if price == "" {
		return fmt.Sprintf("I couldn't find the stock price for %s.", symbol), nil
	}
	return fmt.Sprintf("The current price of %s is $%s.", symbol, price), nil
}
