// Package timers provides the room's owned, cancelable timer registry.
// Timers are keyed by (entity id, purpose), fire from the room tick, and
// never run as free goroutines, so entity removal can always cancel its
// pending work deterministically.
package timers

import (
	"sort"
	"time"
)

// Clock abstracts time so timers can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a test clock advanced by hand.
type ManualClock struct {
	T time.Time
}

func (c *ManualClock) Now() time.Time { return c.T }

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Key identifies one timer: the entity it belongs to and why it exists.
type Key struct {
	EntityID string
	Purpose  string
}

type entry struct {
	key Key
	at  time.Time
	fn  func()
	seq uint64
}

// Registry holds pending timers for one room. Not safe for concurrent
// use; the room serializes access.
type Registry struct {
	pending map[Key]*entry
	nextSeq uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[Key]*entry)}
}

// Schedule arms (or re-arms) the timer for the key. Re-scheduling an
// existing key replaces its deadline and callback.
func (r *Registry) Schedule(key Key, at time.Time, fn func()) {
	r.nextSeq++
	r.pending[key] = &entry{key: key, at: at, fn: fn, seq: r.nextSeq}
}

// Cancel disarms the timer for the key. Reports whether one was pending.
func (r *Registry) Cancel(key Key) bool {
	_, ok := r.pending[key]
	delete(r.pending, key)
	return ok
}

// CancelEntity disarms every timer belonging to the entity. Returns the
// number canceled.
func (r *Registry) CancelEntity(entityID string) int {
	n := 0
	for key := range r.pending {
		if key.EntityID == entityID {
			delete(r.pending, key)
			n++
		}
	}
	return n
}

// Pending reports whether the key has an armed timer.
func (r *Registry) Pending(key Key) bool {
	_, ok := r.pending[key]
	return ok
}

// Len returns the number of armed timers.
func (r *Registry) Len() int {
	return len(r.pending)
}

// Fire invokes and removes every timer due at or before now, in deadline
// order (scheduling order breaks ties). Callbacks may schedule or cancel
// other timers; timers armed during Fire wait for the next call.
func (r *Registry) Fire(now time.Time) int {
	var due []*entry
	for _, e := range r.pending {
		if !e.at.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})

	fired := 0
	for _, e := range due {
		// A callback earlier in this batch may have canceled this one.
		cur, ok := r.pending[e.key]
		if !ok || cur.seq != e.seq {
			continue
		}
		delete(r.pending, e.key)
		e.fn()
		fired++
	}
	return fired
}
