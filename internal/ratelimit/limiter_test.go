package ratelimit

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func testLimiter(now *time.Time, opts ...Option) *Limiter {
	opts = append(opts, WithNow(func() time.Time { return *now }))
	return NewLimiter(opts...)
}

func TestAllowConsumesBudget(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := testLimiter(&now)
	l.Register("c1")

	for i := 0; i < DefaultMovementMax; i++ {
		if !l.Allow("c1", Movement) {
			t.Fatalf("movement %d rejected inside budget", i)
		}
	}
	testutil.AssertEqual(t, "over budget", l.Allow("c1", Movement), false)

	// Classes have independent budgets.
	testutil.AssertEqual(t, "action unaffected", l.Allow("c1", Action), true)
}

func TestAllowWindowResets(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := testLimiter(&now)
	l.Register("c1")

	for i := 0; i < DefaultActionMax; i++ {
		l.Allow("c1", Action)
	}
	testutil.AssertEqual(t, "exhausted", l.Allow("c1", Action), false)

	now = now.Add(DefaultWindow + time.Millisecond)
	testutil.AssertEqual(t, "fresh window", l.Allow("c1", Action), true)
}

func TestAllowUnknownConnectionRejects(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := testLimiter(&now)

	testutil.AssertEqual(t, "unregistered", l.Allow("ghost", Movement), false)

	l.Register("c1")
	l.Unregister("c1")
	testutil.AssertEqual(t, "after unregister", l.Allow("c1", Movement), false)
}

func TestAllowRejectedCallsDoNotConsume(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := testLimiter(&now, WithMax(Action, 1))
	l.Register("c1")

	testutil.AssertEqual(t, "first", l.Allow("c1", Action), true)
	for i := 0; i < 10; i++ {
		l.Allow("c1", Action)
	}

	// Hammering while exhausted must not extend the penalty past the
	// window boundary.
	now = now.Add(DefaultWindow + time.Millisecond)
	testutil.AssertEqual(t, "after window", l.Allow("c1", Action), true)
}

func TestWithMaxOverride(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := testLimiter(&now, WithMax(Movement, 2))
	l.Register("c1")

	testutil.AssertEqual(t, "first", l.Allow("c1", Movement), true)
	testutil.AssertEqual(t, "second", l.Allow("c1", Movement), true)
	testutil.AssertEqual(t, "third", l.Allow("c1", Movement), false)
}

func TestRegisterIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l := testLimiter(&now, WithMax(Action, 1))
	l.Register("c1")

	l.Allow("c1", Action)
	l.Register("c1") // must not reset the live window

	testutil.AssertEqual(t, "still exhausted", l.Allow("c1", Action), false)
}
