// Package ratelimit tracks per-provider call budgets over a sliding window.
// Admission is advisory: callers check before issuing an upstream request and
// fall back to a degraded path when denied. There is no queuing or blocking.
package ratelimit

import (
	"sync"
	"time"
)

// Known upstream services with configured budgets.
const (
	ServiceCoinGecko = "COINGECKO"
	ServiceJupiter   = "JUPITER"
)

// Limit is a calls-per-rolling-window budget.
type Limit struct {
	Calls  int
	Window time.Duration
}

// DefaultLimits returns the provider budgets: CoinGecko's free tier allows
// roughly 10 calls per minute, Jupiter publishes no official limit.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		ServiceCoinGecko: {Calls: 10, Window: time.Minute},
		ServiceJupiter:   {Calls: 100, Window: time.Minute},
	}
}

// Config holds construction options for the limiter.
type Config struct {
	// Limits overrides the per-service budgets. Defaults to DefaultLimits.
	Limits map[string]Limit
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Limiter is a mutex-serialized sliding-window admission tracker.
type Limiter struct {
	mu       sync.Mutex
	limits   map[string]Limit
	requests map[string][]time.Time
	now      func() time.Time
}

// New creates a limiter with the given configuration.
func New(cfg Config) *Limiter {
	limits := cfg.Limits
	if limits == nil {
		limits = DefaultLimits()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		limits:   limits,
		requests: make(map[string][]time.Time),
		now:      now,
	}
}

// CanMakeRequest purges timestamps outside the window, then admits and
// records the current call if the service is under budget. A denied call is
// not recorded. Unknown services are always admitted.
func (l *Limiter) CanMakeRequest(service string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, ok := l.limits[service]
	if !ok {
		return true
	}

	now := l.now()
	valid := l.requests[service][:0]
	for _, t := range l.requests[service] {
		if now.Sub(t) < limit.Window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= limit.Calls {
		l.requests[service] = valid
		return false
	}

	l.requests[service] = append(valid, now)
	return true
}

// Peek reports whether a call would currently be admitted, without recording
// anything. Used by health reporting.
func (l *Limiter) Peek(service string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, ok := l.limits[service]
	if !ok {
		return true
	}

	now := l.now()
	count := 0
	for _, t := range l.requests[service] {
		if now.Sub(t) < limit.Window {
			count++
		}
	}
	return count < limit.Calls
}

// WaitTime returns how long until the oldest recorded call exits the window,
// or 0 if nothing is recorded.
func (l *Limiter) WaitTime(service string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	recorded := l.requests[service]
	if len(recorded) == 0 {
		return 0
	}

	oldest := recorded[0]
	for _, t := range recorded[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}

	wait := l.limits[service].Window - l.now().Sub(oldest)
	if wait < 0 {
		return 0
	}
	return wait
}
