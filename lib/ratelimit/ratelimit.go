package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between outbound requests to a host
// that bans bursty clients. All requests to the portal go through one
// shared Limiter.
type Limiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	// the slot claimed by the most recent waiter, not necessarily in the past
	lastSlot time.Time
}

func New(minDelay time.Duration) *Limiter {
	return &Limiter{minDelay: minDelay}
}

// Wait blocks until the caller's claimed slot arrives, at least minDelay
// after the previous caller's slot. Concurrent waiters each claim distinct
// slots under the lock, so two callers can never compute the same window
// and release together. Returns ctx.Err() if the context expires first.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.lastSlot.Add(l.minDelay)
	if slot.Before(now) {
		slot = now
	}
	l.lastSlot = slot
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MinDelay reports the configured spacing.
func (l *Limiter) MinDelay() time.Duration {
	return l.minDelay
}
