package world

import (
	"math"
	"math/rand"
)

// Position is a point in the room's 2D coordinate space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another position.
func (p Position) Distance(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Clamp constrains the position to [0,w]x[0,h].
func (p Position) Clamp(w, h float64) Position {
	return Position{X: clamp(p.X, 0, w), Y: clamp(p.Y, 0, h)}
}

// RandomInBounds returns a uniformly random position within [0,w]x[0,h].
func RandomInBounds(rng *rand.Rand, w, h float64) Position {
	return Position{X: rng.Float64() * w, Y: rng.Float64() * h}
}

// RandomWithin returns a uniformly random position inside the circle
// described by center and radius.
func RandomWithin(rng *rand.Rand, center Position, radius float64) Position {
	// Square-root the radial draw so area, not radius, is uniform.
	r := radius * math.Sqrt(rng.Float64())
	theta := rng.Float64() * 2 * math.Pi
	return Position{
		X: center.X + r*math.Cos(theta),
		Y: center.Y + r*math.Sin(theta),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
