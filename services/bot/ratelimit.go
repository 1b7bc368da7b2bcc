package bot

import (
	"fmt"
	"sync"
	"time"

	"benficabot/lib/timezone"
)

// Limiter is an in-memory per-key cooldown tracker. Keys are
// user+command pairs so one user spamming a scrape command cannot
// starve anyone else.
type Limiter struct {
	mu        sync.Mutex
	lastCalls map[string]time.Time
	now       func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		lastCalls: map[string]time.Time{},
		now:       timezone.Now,
	}
}

// Allow reports whether the key may fire now and, if so, records the
// call. A zero interval always allows.
func (l *Limiter) Allow(key string, interval time.Duration) bool {
	if interval <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, ok := l.lastCalls[key]
	if ok && now.Sub(last) < interval {
		return false
	}
	l.lastCalls[key] = now
	return true
}

// Remaining returns how long until the key is allowed again, zero when
// it already is.
func (l *Limiter) Remaining(key string, interval time.Duration) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastCalls[key]
	if !ok {
		return 0
	}
	remaining := interval - l.now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the key so the next call is allowed immediately.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lastCalls, key)
}

// formatRemaining renders a cooldown as the coarsest sensible unit,
// "2h", "45m" or "30s".
func formatRemaining(d time.Duration) string {
	seconds := int(d.Seconds())
	switch {
	case seconds >= 3600:
		return fmt.Sprintf("%dh", seconds/3600)
	case seconds >= 60:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
