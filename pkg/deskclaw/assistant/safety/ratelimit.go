// Package safety – ratelimit.go implements per-user sliding-window rate
// limiting for the turn pipeline. Unauthenticated users share a single
// "guest" bucket.
package safety

import (
	"errors"
	"sync"
	"time"
)

// GuestKey is the shared bucket for unauthenticated users.
const GuestKey = "guest"

// ErrRateLimited is returned when a user exceeds the message budget.
var ErrRateLimited = errors.New("too many messages, slow down a bit")

// RateLimiter enforces a maximum number of turns per user within a
// sliding time window.
type RateLimiter struct {
	// maxRequests is the maximum number of turns inside the window.
	maxRequests int

	// window is the length of the sliding window.
	window time.Duration

	// requests holds per-user timestamps of accepted turns.
	requests map[string][]time.Time

	mu sync.Mutex
}

// NewRateLimiter creates a rate limiter. Non-positive arguments fall back
// to 10 turns per minute.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// Allow reports whether userID may start a new turn. Empty userID uses
// the guest bucket. Rejected turns are not recorded, so a user locked
// out mid-window recovers as soon as old entries age out.
func (rl *RateLimiter) Allow(userID string) bool {
	if userID == "" {
		userID = GuestKey
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	// Prune entries outside the window.
	timestamps := rl.requests[userID]
	valid := make([]time.Time, 0, len(timestamps))
	for _, t := range timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.maxRequests {
		rl.requests[userID] = valid
		return false
	}

	rl.requests[userID] = append(valid, now)
	return true
}

// Remaining reports how many turns userID has left in the current window.
func (rl *RateLimiter) Remaining(userID string) int {
	if userID == "" {
		userID = GuestKey
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	count := 0
	for _, t := range rl.requests[userID] {
		if t.After(cutoff) {
			count++
		}
	}
	left := rl.maxRequests - count
	if left < 0 {
		return 0
	}
	return left
}
