package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter limits requests per client in fixed minute, hour and day windows.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	requestsPerDay    int

	clients map[string]*clientUsage
	now     func() time.Time
}

// clientUsage tracks the windows of one client address.
type clientUsage struct {
	minute, hour, day window
}

// window counts requests since start.
type window struct {
	start time.Time
	count int
}

// roll starts a new window when d has elapsed.
func (w *window) roll(now time.Time, d time.Duration) {
	if w.start.IsZero() || now.Sub(w.start) >= d {
		w.start = now
		w.count = 0
	}
}

// NewRateLimiter creates a rate limiter. A zero limit is not enforced.
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		requestsPerDay:    requestsPerDay,
		clients:           make(map[string]*clientUsage),
		now:               time.Now,
	}
}

// Allow records a request from clientID, or returns a *RateLimitError when a
// limit is reached.
func (rl *RateLimiter) Allow(clientID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{}
		rl.clients[clientID] = usage
	}

	limits := []struct {
		name  string
		limit int
		span  time.Duration
		w     *window
	}{
		{"minute", rl.requestsPerMinute, time.Minute, &usage.minute},
		{"hour", rl.requestsPerHour, time.Hour, &usage.hour},
		{"day", rl.requestsPerDay, 24 * time.Hour, &usage.day},
	}

	for _, l := range limits {
		l.w.roll(now, l.span)
		if l.limit > 0 && l.w.count >= l.limit {
			return &RateLimitError{
				Type:       l.name,
				Limit:      l.limit,
				RetryAfter: l.span - now.Sub(l.w.start),
			}
		}
	}

	for _, l := range limits {
		l.w.count++
	}
	return nil
}

// Requests returns the number of requests clientID made in the current minute window.
func (rl *RateLimiter) Requests(clientID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if usage, ok := rl.clients[clientID]; ok {
		return usage.minute.count
	}
	return 0
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute", "hour" or "day"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}
