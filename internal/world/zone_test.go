package world

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestZoneContains(t *testing.T) {
	z := &Zone{Center: Position{X: 50, Y: 50}, Radius: 10}

	tests := map[string]struct {
		pos Position
		exp bool
	}{
		"center":       {pos: Position{X: 50, Y: 50}, exp: true},
		"inside":       {pos: Position{X: 55, Y: 55}, exp: true},
		"on boundary":  {pos: Position{X: 60, Y: 50}, exp: true},
		"just outside": {pos: Position{X: 60.01, Y: 50}, exp: false},
		"far away":     {pos: Position{X: 0, Y: 0}, exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "contains", z.Contains(tt.pos), tt.exp)
		})
	}
}

func TestZoneCapacity(t *testing.T) {
	z := &Zone{Radius: 10, Capacity: 2}

	testutil.AssertEqual(t, "first join", z.Join("p1"), true)
	testutil.AssertEqual(t, "second join", z.Join("p2"), true)
	testutil.AssertEqual(t, "join at capacity", z.Join("p3"), false)
	testutil.AssertEqual(t, "members", z.MemberCount(), 2)

	z.Leave("p1")
	testutil.AssertEqual(t, "join after leave", z.Join("p3"), true)
}

func TestZoneZeroCapacityIsUnbounded(t *testing.T) {
	z := &Zone{Radius: 10}

	for i := 0; i < 100; i++ {
		if !z.Join(string(rune('a' + i))) {
			t.Fatalf("join %d rejected on unbounded zone", i)
		}
	}
	testutil.AssertEqual(t, "full", z.Full(), false)
}

func TestZoneValidate(t *testing.T) {
	tests := map[string]struct {
		zone   Zone
		expErr bool
	}{
		"valid":             {zone: Zone{Name: "plaza", Radius: 5}},
		"missing name":      {zone: Zone{Radius: 5}, expErr: true},
		"zero radius":       {zone: Zone{Name: "plaza"}, expErr: true},
		"negative capacity": {zone: Zone{Name: "plaza", Radius: 5, Capacity: -1}, expErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.zone.Validate()
			if tt.expErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.expErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
