// Package features – greet.go builds the time-of-day greeting.
package features

import (
	"fmt"
	"time"
)

// Greeting returns the greeting line for the given local time,
// personalized with name when known.
func Greeting(at time.Time, name string) string {
	var part string
	switch hour := at.Hour(); {
	case hour < 12:
		part = "Good Morning"
	case hour < 18:
		part = "Good Afternoon"
	case hour < 21:
		part = "Good Evening"
	default:
		part = "Good Night"
	}
	if name != "" {
		return fmt.Sprintf("%s, %s. Please tell me, how can I help you?", part, name)
	}
	return fmt.Sprintf("%s. Please tell me, how can I help you?", part)
}
