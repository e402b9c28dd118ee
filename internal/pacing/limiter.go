// Package pacing caps the frame rate of interactive binaries.
package pacing

import (
	"time"

	"drawmgr/internal/config"
)

// IdleFPS is the cap applied while the window is unfocused.
const IdleFPS = 30

// spinWindow is how close to the deadline Wait stops sleeping and spins.
const spinWindow = 200 * time.Microsecond

// Limiter paces frames against a running deadline.
type Limiter struct {
	next time.Time
	// limit overrides config.GetFPSLimit when positive.
	limit int
}

// NewLimiter creates a limiter following the configured FPS limit.
func NewLimiter() *Limiter {
	return &Limiter{}
}

// NewFixedLimiter creates a limiter ignoring the configuration.
func NewFixedLimiter(fps int) *Limiter {
	return &Limiter{limit: fps}
}

// Wait blocks until the next frame is due and returns how long it waited.
// A limit of 0 disables pacing.
func (l *Limiter) Wait(idle bool) time.Duration {
	limit := l.limit
	if limit <= 0 {
		limit = config.GetFPSLimit()
	}
	if idle && (limit <= 0 || limit > IdleFPS) {
		limit = IdleFPS
	}
	if limit <= 0 {
		l.next = time.Time{}
		return 0
	}

	start := time.Now()
	target := time.Second / time.Duration(limit)
	if l.next.IsZero() {
		l.next = start.Add(target)
	} else {
		l.next = l.next.Add(target)
	}

	for {
		remaining := time.Until(l.next)
		if remaining <= 0 {
			break
		}
		if remaining > spinWindow {
			time.Sleep(remaining - spinWindow)
		}
	}

	// Resync after a hitch instead of rushing to catch up.
	if late := -time.Until(l.next); late > target {
		l.next = time.Now().Add(target)
	}
	return time.Since(start)
}
