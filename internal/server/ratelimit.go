package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter bounds per-client request rates and daily payload volume.
// The zero limits disable their respective checks.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	maxDataPerDay     int64

	clients map[string]*clientUsage
}

// clientUsage tracks counters for one client identifier.
type clientUsage struct {
	minuteCount int
	minuteStart time.Time

	hourCount int
	hourStart time.Time

	dataToday int64
	dayStart  time.Time
}

// RateLimitError reports which limit was exceeded and when retrying makes
// sense.
type RateLimitError struct {
	Type       string // "minute", "hour", or "data"
	Limit      int64
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// NewRateLimiter creates a rate limiter with the given limits. Any limit
// set to zero is not enforced.
func NewRateLimiter(requestsPerMinute, requestsPerHour int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Allow checks whether a request of dataSize bytes from the client may
// proceed and records it if so.
func (rl *RateLimiter) Allow(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{minuteStart: now, hourStart: now, dayStart: now}
		rl.clients[clientID] = usage
	}
	rollWindows(usage, now)

	if rl.requestsPerMinute > 0 && usage.minuteCount >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      int64(rl.requestsPerMinute),
			RetryAfter: time.Minute - now.Sub(usage.minuteStart),
		}
	}
	if rl.requestsPerHour > 0 && usage.hourCount >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      int64(rl.requestsPerHour),
			RetryAfter: time.Hour - now.Sub(usage.hourStart),
		}
	}
	if rl.maxDataPerDay > 0 && usage.dataToday+dataSize > rl.maxDataPerDay {
		return &RateLimitError{
			Type:       "data",
			Limit:      rl.maxDataPerDay,
			RetryAfter: 24*time.Hour - now.Sub(usage.dayStart),
		}
	}

	usage.minuteCount++
	usage.hourCount++
	usage.dataToday += dataSize
	return nil
}

// rollWindows restarts any counting window that has elapsed.
func rollWindows(usage *clientUsage, now time.Time) {
	if now.Sub(usage.minuteStart) >= time.Minute {
		usage.minuteCount = 0
		usage.minuteStart = now
	}
	if now.Sub(usage.hourStart) >= time.Hour {
		usage.hourCount = 0
		usage.hourStart = now
	}
	if now.Sub(usage.dayStart) >= 24*time.Hour {
		usage.dataToday = 0
		usage.dayStart = now
	}
}
