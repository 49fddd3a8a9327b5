// Package features – weather.go implements current-weather lookups via an
// OpenWeather-compatible API, with a short in-memory cache and an IP-based
// geolocation fallback for queries that name no city.
package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrNoCity is returned when a weather query names no city and no default
// or geolocated city is available. Callers use it to start slot-filling.
var ErrNoCity = errors.New("no city specified")

// weatherCacheTTL is how long a fetched report stays valid.
const weatherCacheTTL = 10 * time.Minute

// WeatherConfig configures the weather client.
type WeatherConfig struct {
	// APIKey is the OpenWeather API key.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the OpenWeather endpoint, mainly for tests.
	BaseURL string `yaml:"base_url,omitempty"`

	// GeoURL overrides the IP geolocation endpoint.
	GeoURL string `yaml:"geo_url,omitempty"`
}

// WeatherClient fetches and caches current-weather reports.
type WeatherClient struct {
	apiKey  string
	baseURL string
	geoURL  string
	http    *http.Client
	logger  *slog.Logger

	cacheMu sync.Mutex
	cache   map[string]weatherCacheEntry

	// now is swappable for cache-expiry tests.
	now func() time.Time
}

type weatherCacheEntry struct {
	report    string
	fetchedAt time.Time
}

// NewWeatherClient creates a weather client.
func NewWeatherClient(cfg WeatherConfig, logger *slog.Logger) *WeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	geoURL := cfg.GeoURL
	if geoURL == "" {
		geoURL = "http://ip-api.com/json"
	}
	return &WeatherClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		geoURL:  geoURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With("component", "weather"),
		cache:   make(map[string]weatherCacheEntry),
		now:     time.Now,
	}
}

// Current returns a formatted weather report for city (and optional
// country), serving from cache when fresh.
func (c *WeatherClient) Current(ctx context.Context, city, country string) (string, error) {
	if strings.TrimSpace(city) == "" {
		return "", ErrNoCity
	}

	location := strings.ToLower(strings.TrimSpace(city))
	if country != "" {
		location = location + "," + strings.ToLower(strings.TrimSpace(country))
	}

	c.cacheMu.Lock()
	if entry, ok := c.cache[location]; ok && c.now().Sub(entry.fetchedAt) < weatherCacheTTL {
		c.cacheMu.Unlock()
		c.logger.Debug("serving cached weather", "location", location)
		return entry.report, nil
	}
	c.cacheMu.Unlock()

	report, err := c.fetch(ctx, location)
	if err != nil {
		return "", err
	}

	c.cacheMu.Lock()
	c.cache[location] = weatherCacheEntry{report: report, fetchedAt: c.now()}
	c.cacheMu.Unlock()
	return report, nil
}

func (c *WeatherClient) fetch(ctx context.Context, location string) (string, error) {
	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(location), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read weather response: %w", err)
	}

	var data struct {
		Cod     json.Number `json:"cod"`
		Name    string      `json:"name"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Sys struct {
			Country string `json:"country"`
		} `json:"sys"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}
	if data.Cod.String() != "200" {
		return "", fmt.Errorf("city %q not found", location)
	}

	desc := ""
	if len(data.Weather) > 0 {
		desc = capitalize(data.Weather[0].Description)
	}
	return fmt.Sprintf(
		"Weather in %s, %s:\n- Condition: %s\n- Temperature: %.1f°C (feels like %.1f°C)\n- Humidity: %d%%\n- Wind: %.1f m/s",
		data.Name, data.Sys.Country, desc,
		data.Main.Temp, data.Main.FeelsLike, data.Main.Humidity, data.Wind.Speed,
	), nil
}

// Geolocate resolves the machine's city and country from its public IP.
func (c *WeatherClient) Geolocate(ctx context.Context) (city, country string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geoURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build geolocation request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()

	var data struct {
		City    string `json:"city"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", "", fmt.Errorf("decode geolocation response: %w", err)
	}
	return data.City, data.Country, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
