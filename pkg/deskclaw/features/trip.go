// Package features – trip.go implements the trip planner. It combines the
// weather report and web search results for a destination into a strict
// JSON itinerary prompt, then repairs and decodes the model output.
package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// ErrItineraryMalformed is returned when the model output cannot be
// decoded even after repair.
var ErrItineraryMalformed = errors.New("failed to parse the itinerary")

// ItineraryDay is one day of a planned trip.
type ItineraryDay struct {
	Day       int    `json:"day"`
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
}

// Itinerary is a full trip plan.
type Itinerary struct {
	Days []ItineraryDay `json:"itinerary"`
}

// Format renders the itinerary as reply text.
func (it *Itinerary) Format(destination string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your trip plan for %s:\n", destination)
	for _, day := range it.Days {
		fmt.Fprintf(&b, "\nDay %d:\n- Morning: %s\n- Afternoon: %s\n- Evening: %s\n",
			day.Day, day.Morning, day.Afternoon, day.Evening)
	}
	return strings.TrimRight(b.String(), "\n")
}

// tripCompleter is the slice of the LLM client trip planning needs.
type tripCompleter interface {
	CompletePrompt(ctx context.Context, prompt string) (string, error)
}

// TripPlanner builds trip itineraries.
type TripPlanner struct {
	llm     tripCompleter
	weather *WeatherClient
	search  *SearchClient
	logger  *slog.Logger
}

// NewTripPlanner creates a trip planner.
func NewTripPlanner(llm tripCompleter, weather *WeatherClient, search *SearchClient, logger *slog.Logger) *TripPlanner {
	return &TripPlanner{
		llm:     llm,
		weather: weather,
		search:  search,
		logger:  logger.With("component", "trip"),
	}
}

const tripPromptTemplate = `You are a travel assistant. Your task is to create a structured trip itinerary.

STRICT RULES:
- Output ONLY valid JSON. No explanations, no text outside JSON.
- JSON must have the following structure:
{
    "itinerary": [
        {
            "day": <number>,
            "morning": "<activity>",
            "afternoon": "<activity>",
            "evening": "<activity>"
        }
    ]
}

User request:
- Destination: %s
- Duration: %s days
- Interests: %s
- Trip Type: %s

Weather forecast:
%s

Search results:
%s`

// Plan builds an itinerary for destination. All slot values must be
// non-empty; slot-filling guarantees that before the handler runs.
func (p *TripPlanner) Plan(ctx context.Context, destination, duration, interests, tripType string) (*Itinerary, error) {
	if destination == "" || duration == "" || interests == "" || tripType == "" {
		return nil, errors.New("destination, duration, interests and trip type are all required")
	}

	weatherReport, err := p.weather.Current(ctx, destination, "")
	if err != nil {
		// Plan without the forecast rather than failing the whole trip.
		p.logger.Warn("weather unavailable for trip", "destination", destination, "error", err)
		weatherReport = "Weather forecast unavailable."
	}

	hits, err := p.search.Search(ctx, destination+" travel guide "+interests)
	if err != nil {
		return nil, fmt.Errorf("searching for %s: %w", destination, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("couldn't find enough information to plan a trip to %s", destination)
	}

	prompt := fmt.Sprintf(tripPromptTemplate,
		destination, duration, interests, tripType, weatherReport, FormatHits(hits))

	raw, err := p.llm.CompletePrompt(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("itinerary request: %w", err)
	}

	itinerary, err := DecodeItinerary(raw)
	if err != nil {
		p.logger.Warn("itinerary decode failed", "error", err, "raw", raw)
		return nil, err
	}
	return itinerary, nil
}

var (
	jsonFenceRe    = regexp.MustCompile("```(?:json)?")
	trailingObjRe  = regexp.MustCompile(`,\s*}`)
	trailingListRe = regexp.MustCompile(`,\s*]`)
)

// FixJSON repairs the common JSON defects of model output: Markdown
// fences and trailing commas before closing braces or brackets.
func FixJSON(raw string) string {
	raw = jsonFenceRe.ReplaceAllString(raw, "")
	raw = strings.TrimSpace(raw)
	raw = trailingObjRe.ReplaceAllString(raw, "}")
	raw = trailingListRe.ReplaceAllString(raw, "]")
	return raw
}

// DecodeItinerary repairs and decodes a model-produced itinerary.
func DecodeItinerary(raw string) (*Itinerary, error) {
	var itinerary Itinerary
	if err := json.Unmarshal([]byte(FixJSON(raw)), &itinerary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrItineraryMalformed, err)
	}
	if len(itinerary.Days) == 0 {
		return nil, fmt.Errorf("%w: empty itinerary", ErrItineraryMalformed)
	}
	return &itinerary, nil
}
