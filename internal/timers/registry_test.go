package timers

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func testClock() *ManualClock {
	return &ManualClock{T: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func TestFireInvokesDueTimers(t *testing.T) {
	clock := testClock()
	r := NewRegistry()

	var fired []string
	r.Schedule(Key{"e1", "despawn"}, clock.T.Add(10*time.Second), func() { fired = append(fired, "e1") })
	r.Schedule(Key{"e2", "despawn"}, clock.T.Add(20*time.Second), func() { fired = append(fired, "e2") })

	testutil.AssertEqual(t, "nothing due", r.Fire(clock.Now()), 0)

	clock.Advance(15 * time.Second)
	testutil.AssertEqual(t, "one due", r.Fire(clock.Now()), 1)
	testutil.AssertEqual(t, "fired", fired[0], "e1")
	testutil.AssertEqual(t, "remaining", r.Len(), 1)

	clock.Advance(10 * time.Second)
	testutil.AssertEqual(t, "second due", r.Fire(clock.Now()), 1)
	testutil.AssertEqual(t, "empty", r.Len(), 0)
}

func TestFireOrdersByDeadlineThenSchedule(t *testing.T) {
	clock := testClock()
	r := NewRegistry()

	var fired []string
	r.Schedule(Key{"late", "x"}, clock.T.Add(2*time.Second), func() { fired = append(fired, "late") })
	r.Schedule(Key{"early", "x"}, clock.T.Add(time.Second), func() { fired = append(fired, "early") })
	r.Schedule(Key{"tie-a", "x"}, clock.T.Add(3*time.Second), func() { fired = append(fired, "tie-a") })
	r.Schedule(Key{"tie-b", "x"}, clock.T.Add(3*time.Second), func() { fired = append(fired, "tie-b") })

	clock.Advance(5 * time.Second)
	r.Fire(clock.Now())

	want := []string{"early", "late", "tie-a", "tie-b"}
	testutil.AssertEqual(t, "count", len(fired), len(want))
	for i := range want {
		testutil.AssertEqual(t, "order", fired[i], want[i])
	}
}

func TestScheduleReplacesExistingKey(t *testing.T) {
	clock := testClock()
	r := NewRegistry()
	key := Key{"e1", "despawn"}

	var hits int
	r.Schedule(key, clock.T.Add(time.Second), func() { hits += 100 })
	r.Schedule(key, clock.T.Add(2*time.Second), func() { hits++ })

	testutil.AssertEqual(t, "single entry", r.Len(), 1)

	clock.Advance(time.Second)
	testutil.AssertEqual(t, "old deadline ignored", r.Fire(clock.Now()), 0)

	clock.Advance(time.Second)
	r.Fire(clock.Now())
	testutil.AssertEqual(t, "replacement fired", hits, 1)
}

func TestCancel(t *testing.T) {
	clock := testClock()
	r := NewRegistry()
	key := Key{"e1", "despawn"}

	r.Schedule(key, clock.T.Add(time.Second), func() { t.Error("canceled timer fired") })

	testutil.AssertEqual(t, "cancel pending", r.Cancel(key), true)
	testutil.AssertEqual(t, "cancel again", r.Cancel(key), false)

	clock.Advance(2 * time.Second)
	testutil.AssertEqual(t, "nothing fires", r.Fire(clock.Now()), 0)
}

func TestCancelEntityDisarmsAllPurposes(t *testing.T) {
	clock := testClock()
	r := NewRegistry()

	r.Schedule(Key{"e1", "despawn"}, clock.T.Add(time.Second), func() {})
	r.Schedule(Key{"e1", "timeout"}, clock.T.Add(time.Second), func() {})
	r.Schedule(Key{"e2", "despawn"}, clock.T.Add(time.Second), func() {})

	testutil.AssertEqual(t, "canceled", r.CancelEntity("e1"), 2)
	testutil.AssertEqual(t, "survivor", r.Pending(Key{"e2", "despawn"}), true)
}

func TestFireCallbackCanCancelLaterEntry(t *testing.T) {
	clock := testClock()
	r := NewRegistry()

	var fired []string
	r.Schedule(Key{"e1", "x"}, clock.T.Add(time.Second), func() {
		fired = append(fired, "e1")
		r.Cancel(Key{"e2", "x"})
	})
	r.Schedule(Key{"e2", "x"}, clock.T.Add(2*time.Second), func() { fired = append(fired, "e2") })

	clock.Advance(3 * time.Second)
	testutil.AssertEqual(t, "only first fired", r.Fire(clock.Now()), 1)
	testutil.AssertEqual(t, "fired", fired[0], "e1")
	testutil.AssertEqual(t, "empty", r.Len(), 0)
}

func TestFireCallbackReschedulingWaitsForNextCall(t *testing.T) {
	clock := testClock()
	r := NewRegistry()
	key := Key{"e1", "x"}

	var hits int
	r.Schedule(key, clock.T, func() {
		hits++
		// Re-arm for the same instant; it must not fire in this batch.
		r.Schedule(key, clock.T, func() { hits++ })
	})

	testutil.AssertEqual(t, "first pass", r.Fire(clock.Now()), 1)
	testutil.AssertEqual(t, "hits", hits, 1)
	testutil.AssertEqual(t, "re-armed", r.Pending(key), true)

	testutil.AssertEqual(t, "second pass", r.Fire(clock.Now()), 1)
	testutil.AssertEqual(t, "hits after second pass", hits, 2)
}
