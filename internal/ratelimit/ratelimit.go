// Package ratelimit throttles graph mutations per client. Denial is a normal
// return value carrying the remaining wait, never a hard failure.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config holds the three windows: a sliding action window, a short-burst
// delete window, and a lifetime delete cap persisted across sessions.
type Config struct {
	MaxActions      int
	Window          time.Duration
	Cooldown        time.Duration
	MaxDeletes      int
	DeleteWindow    time.Duration
	MaxTotalDeletes int
}

// RateLimitError reports a denied action and how long the caller should wait.
// Wait is zero for the lifetime cap, which never expires.
type RateLimitError struct {
	Scope string // "action", "delete" or "total-delete"
	Wait  time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("rate limited (%s): retry in %s", e.Scope, e.Wait.Round(time.Second))
	}
	return fmt.Sprintf("rate limited (%s): lifetime limit reached", e.Scope)
}

// CounterStore persists the lifetime delete counter per client.
type CounterStore interface {
	TotalDeletes(clientID string) (int, error)
	SetTotalDeletes(clientID string, n int) error
}

// Limiter tracks action and delete counts for a single client. Admin
// exemption is the caller's concern: the stores simply skip the checks for
// admin sessions.
type Limiter struct {
	cfg      Config
	now      func() time.Time
	counters CounterStore

	mu          sync.Mutex
	actionCount int
	lastAction  time.Time
	deleteCount int
	lastDelete  time.Time
}

func New(cfg Config, counters CounterStore) *Limiter {
	return &Limiter{cfg: cfg, now: time.Now, counters: counters}
}

// SetClock replaces the time source. Tests use it to step through windows.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// CheckAction consumes one slot in the sliding action window. Once the window
// holds MaxActions, further calls are denied until the cooldown since the
// last action elapses, at which point the window resets.
func (l *Limiter) CheckAction() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastAction)

	if elapsed > l.cfg.Window {
		l.actionCount = 0
	}
	if l.actionCount >= l.cfg.MaxActions {
		if wait := l.cfg.Cooldown - elapsed; wait > 0 {
			return &RateLimitError{Scope: "action", Wait: wait}
		}
		l.actionCount = 0
	}

	l.actionCount++
	l.lastAction = now
	return nil
}

// CheckDelete consumes one slot in the short-burst delete window.
func (l *Limiter) CheckDelete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastDelete)

	if elapsed > l.cfg.DeleteWindow {
		l.deleteCount = 0
	}
	if l.deleteCount >= l.cfg.MaxDeletes {
		wait := l.cfg.DeleteWindow - elapsed
		if wait < 0 {
			wait = 0
		}
		return &RateLimitError{Scope: "delete", Wait: wait}
	}

	l.deleteCount++
	l.lastDelete = now
	return nil
}

// CheckTotalDelete enforces the lifetime node-deletion cap. The counter lives
// in durable storage so restarting does not reset it.
func (l *Limiter) CheckTotalDelete(clientID string) error {
	total, err := l.counters.TotalDeletes(clientID)
	if err != nil {
		return fmt.Errorf("failed to read delete counter: %w", err)
	}
	if total >= l.cfg.MaxTotalDeletes {
		return &RateLimitError{Scope: "total-delete"}
	}
	return nil
}

// RecordDelete increments and persists the lifetime counter after a
// successful node deletion, returning how many deletions remain.
func (l *Limiter) RecordDelete(clientID string) (remaining int, err error) {
	total, err := l.counters.TotalDeletes(clientID)
	if err != nil {
		return 0, fmt.Errorf("failed to read delete counter: %w", err)
	}
	total++
	if err := l.counters.SetTotalDeletes(clientID, total); err != nil {
		return 0, fmt.Errorf("failed to persist delete counter: %w", err)
	}
	remaining = l.cfg.MaxTotalDeletes - total
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
