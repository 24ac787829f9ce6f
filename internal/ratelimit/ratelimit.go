// Package ratelimit provides a sliding-window request limiter for the
// listings API.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces per-minute and per-hour request caps over sliding
// windows.
type Limiter struct {
	perMinute int
	perHour   int
	enabled   bool

	minuteWindow []time.Time
	hourWindow   []time.Time
	mu           sync.Mutex
}

// New creates a limiter. A zero limit disables that window.
func New(perMinute, perHour int, enabled bool) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		perHour:   perHour,
		enabled:   enabled,
	}
}

// Allow reports whether another request fits under the limits, and
// records it when it does.
func (l *Limiter) Allow() bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.trim(now)

	if l.perMinute > 0 && len(l.minuteWindow) >= l.perMinute {
		return false
	}
	if l.perHour > 0 && len(l.hourWindow) >= l.perHour {
		return false
	}

	l.minuteWindow = append(l.minuteWindow, now)
	l.hourWindow = append(l.hourWindow, now)
	return true
}

func (l *Limiter) trim(now time.Time) {
	l.minuteWindow = filterTimes(l.minuteWindow, now.Add(-1*time.Minute))
	l.hourWindow = filterTimes(l.hourWindow, now.Add(-1*time.Hour))
}

func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// Stats is a snapshot of the limiter state for the stats endpoint.
type Stats struct {
	Enabled            bool `json:"enabled"`
	RequestsLastMinute int  `json:"requests_last_minute"`
	RequestsLastHour   int  `json:"requests_last_hour"`
	LimitPerMinute     int  `json:"limit_per_minute"`
	LimitPerHour       int  `json:"limit_per_hour"`
}

func (l *Limiter) GetStats() Stats {
	if !l.enabled {
		return Stats{Enabled: false}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.trim(time.Now())
	return Stats{
		Enabled:            true,
		RequestsLastMinute: len(l.minuteWindow),
		RequestsLastHour:   len(l.hourWindow),
		LimitPerMinute:     l.perMinute,
		LimitPerHour:       l.perHour,
	}
}

// Reset clears all tracked requests.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minuteWindow = nil
	l.hourWindow = nil
}
