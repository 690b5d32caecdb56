package world

import (
	"math/rand"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestPositionDistance(t *testing.T) {
	tests := map[string]struct {
		a, b Position
		exp  float64
	}{
		"same point":   {a: Position{X: 3, Y: 4}, b: Position{X: 3, Y: 4}, exp: 0},
		"3-4-5":        {a: Position{}, b: Position{X: 3, Y: 4}, exp: 5},
		"negative coords": {a: Position{X: -1, Y: -1}, b: Position{X: 2, Y: 3}, exp: 5},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "distance", tt.a.Distance(tt.b), tt.exp)
		})
	}
}

func TestPositionClamp(t *testing.T) {
	tests := map[string]struct {
		pos Position
		exp Position
	}{
		"inside":       {pos: Position{X: 10, Y: 20}, exp: Position{X: 10, Y: 20}},
		"below origin": {pos: Position{X: -5, Y: -1}, exp: Position{X: 0, Y: 0}},
		"past bounds":  {pos: Position{X: 150, Y: 99}, exp: Position{X: 100, Y: 50}},
		"on edge":      {pos: Position{X: 100, Y: 50}, exp: Position{X: 100, Y: 50}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "clamped", tt.pos.Clamp(100, 50), tt.exp)
		})
	}
}

func TestRandomWithinStaysInsideCircle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	center := Position{X: 50, Y: 50}

	for i := 0; i < 1000; i++ {
		p := RandomWithin(rng, center, 25)
		if d := center.Distance(p); d > 25 {
			t.Fatalf("draw %d landed at distance %f, radius is 25", i, d)
		}
	}
}

func TestRandomInBoundsStaysInsideBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		p := RandomInBounds(rng, 200, 100)
		if p.X < 0 || p.X > 200 || p.Y < 0 || p.Y > 100 {
			t.Fatalf("draw %d landed outside bounds: %+v", i, p)
		}
	}
}
