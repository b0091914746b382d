// Package ratelimiter implements per-provider request admission with
// rolling per-minute and per-hour windows. State is in-memory and
// per-process; nothing is persisted across restarts.
package ratelimiter

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

// Ceiling configures the two independent limits a provider carries.
type Ceiling struct {
	PerMinute int
	PerHour   int
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Reason     string
	RetryAfter time.Duration
}

// WindowStatus reports usage against one ceiling.
type WindowStatus struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

// ProviderStatus is the read-only view of a provider's windows.
type ProviderStatus struct {
	Provider  string       `json:"provider"`
	PerMinute WindowStatus `json:"per_minute"`
	PerHour   WindowStatus `json:"per_hour"`
}

// window tracks one provider's counters. A window resets lazily once the
// elapsed time since its start exceeds the period.
type window struct {
	minuteCount int
	hourCount   int
	minuteStart time.Time
	hourStart   time.Time
}

// WindowLimiter admits or rejects requests per provider. Unknown providers
// fail open: rate limiting protects cost, it is not a security boundary.
type WindowLimiter struct {
	mu       sync.Mutex
	ceilings map[string]Ceiling
	windows  map[string]*window
	now      func() time.Time
}

// New builds a limiter over the given per-provider ceilings.
func New(ceilings map[string]Ceiling) *WindowLimiter {
	if ceilings == nil {
		ceilings = map[string]Ceiling{}
	}
	return &WindowLimiter{
		ceilings: ceilings,
		windows:  map[string]*window{},
		now:      time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (l *WindowLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Check admits or rejects one request for provider. Admission increments
// both counters; rejection reports the wait until the nearer window resets.
func (l *WindowLimiter) Check(provider string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	ceiling, ok := l.ceilings[provider]
	if !ok {
		return Decision{Allowed: true}
	}

	now := l.now()
	w := l.windowLocked(provider, now)
	l.expireLocked(w, now)

	if w.minuteCount+1 > ceiling.PerMinute || w.hourCount+1 > ceiling.PerHour {
		retryAfter := l.nearestResetLocked(w, ceiling, now)
		slog.Warn("rate limit exceeded",
			slog.String("provider", provider),
			slog.Int("minute_used", w.minuteCount),
			slog.Int("hour_used", w.hourCount),
			slog.Duration("retry_after", retryAfter))
		return Decision{
			Allowed:    false,
			Reason:     "Rate limit exceeded",
			RetryAfter: retryAfter,
		}
	}

	w.minuteCount++
	w.hourCount++
	return Decision{Allowed: true}
}

// Status returns a read-only usage view, nil for unknown providers.
// Expiry is applied so the view is current, but counters are not consumed.
func (l *WindowLimiter) Status(provider string) *ProviderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	ceiling, ok := l.ceilings[provider]
	if !ok {
		return nil
	}
	now := l.now()
	w := l.windowLocked(provider, now)
	l.expireLocked(w, now)

	return &ProviderStatus{
		Provider: provider,
		PerMinute: WindowStatus{
			Used:      w.minuteCount,
			Remaining: maxInt(0, ceiling.PerMinute-w.minuteCount),
			Limit:     ceiling.PerMinute,
		},
		PerHour: WindowStatus{
			Used:      w.hourCount,
			Remaining: maxInt(0, ceiling.PerHour-w.hourCount),
			Limit:     ceiling.PerHour,
		},
	}
}

// Reset zeroes both windows immediately. No-op for unknown providers.
func (l *WindowLimiter) Reset(provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows[provider]; !ok {
		return
	}
	now := l.now()
	l.windows[provider] = &window{minuteStart: now, hourStart: now}
}

func (l *WindowLimiter) windowLocked(provider string, now time.Time) *window {
	w, ok := l.windows[provider]
	if !ok {
		w = &window{minuteStart: now, hourStart: now}
		l.windows[provider] = w
	}
	return w
}

func (l *WindowLimiter) expireLocked(w *window, now time.Time) {
	if now.Sub(w.minuteStart) >= time.Minute {
		w.minuteCount = 0
		w.minuteStart = now
	}
	if now.Sub(w.hourStart) >= time.Hour {
		w.hourCount = 0
		w.hourStart = now
	}
}

// nearestResetLocked returns the wait until the sooner of the two windows
// that are actually full resets.
func (l *WindowLimiter) nearestResetLocked(w *window, c Ceiling, now time.Time) time.Duration {
	wait := time.Duration(math.MaxInt64)
	if w.minuteCount+1 > c.PerMinute {
		if d := time.Minute - now.Sub(w.minuteStart); d < wait {
			wait = d
		}
	}
	if w.hourCount+1 > c.PerHour {
		if d := time.Hour - now.Sub(w.hourStart); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
