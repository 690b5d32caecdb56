// Package ratelimit throttles per-connection message classes with fixed
// sliding windows. State lives only in memory and is discarded when the
// connection goes away.
package ratelimit

import (
	"time"
)

// Class separates message budgets: movement is high-frequency, generic
// actions are not.
type Class int

const (
	Movement Class = iota
	Action
	numClasses
)

// Defaults per one-second window.
const (
	DefaultWindow      = time.Second
	DefaultMovementMax = 5
	DefaultActionMax   = 3
)

type window struct {
	count int
	start time.Time
}

// Limiter tracks per-connection counters. Not safe for concurrent use;
// the room serializes calls.
type Limiter struct {
	window time.Duration
	max    [numClasses]int
	conns  map[string]*[numClasses]window

	now func() time.Time
}

// Option adjusts limiter construction.
type Option func(*Limiter)

// WithWindow overrides the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) { l.window = d }
}

// WithMax overrides the budget for one class.
func WithMax(c Class, max int) Option {
	return func(l *Limiter) {
		if c >= 0 && c < numClasses {
			l.max[c] = max
		}
	}
}

// WithNow injects a clock for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a limiter with the default budgets.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		window: DefaultWindow,
		conns:  make(map[string]*[numClasses]window),
		now:    time.Now,
	}
	l.max[Movement] = DefaultMovementMax
	l.max[Action] = DefaultActionMax

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register seeds counters for a connection. Until registered, Allow
// rejects the connection (fail closed).
func (l *Limiter) Register(connID string) {
	if _, ok := l.conns[connID]; ok {
		return
	}
	l.conns[connID] = &[numClasses]window{}
}

// Unregister discards a connection's counters.
func (l *Limiter) Unregister(connID string) {
	delete(l.conns, connID)
}

// Allow consumes one request from the connection's budget for the class.
// Unknown connections always reject.
func (l *Limiter) Allow(connID string, c Class) bool {
	if c < 0 || c >= numClasses {
		return false
	}
	wins, ok := l.conns[connID]
	if !ok {
		return false
	}

	now := l.now()
	w := &wins[c]
	if now.Sub(w.start) > l.window {
		w.count = 0
		w.start = now
	}
	if w.count >= l.max[c] {
		return false
	}
	w.count++
	return true
}
