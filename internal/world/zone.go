package world

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// Zone is a circular geofenced area with bounded membership. Geometry is
// static for the room's lifetime; only membership changes, and only
// through Join and Leave so the roster and player zone pointers stay
// consistent.
type Zone struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Center   Position `json:"center"`
	Radius   float64  `json:"radius"`
	Capacity int      `json:"capacity"`
	Active   bool     `json:"isActive"`

	Members map[string]struct{} `json:"-"`
}

// Validate satisfies storage.ValidatingSpec so zones can be loaded as
// assets.
func (z *Zone) Validate() error {
	el := errors.NewErrorList()

	if z.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if z.Radius <= 0 {
		el.Add(fmt.Errorf("radius must be positive"))
	}
	if z.Capacity < 0 {
		el.Add(fmt.Errorf("capacity must not be negative"))
	}

	return el.Err()
}

// Contains reports whether the position lies inside the zone.
func (z *Zone) Contains(pos Position) bool {
	return z.Center.Distance(pos) <= z.Radius
}

// MemberCount returns the current roster size.
func (z *Zone) MemberCount() int {
	return len(z.Members)
}

// Full reports whether the zone is at capacity. Zero capacity means
// unbounded.
func (z *Zone) Full() bool {
	return z.Capacity > 0 && len(z.Members) >= z.Capacity
}

// Join adds a player to the roster. Returns false without mutating when
// the zone is at capacity.
func (z *Zone) Join(playerID string) bool {
	if z.Full() {
		return false
	}
	if z.Members == nil {
		z.Members = make(map[string]struct{})
	}
	z.Members[playerID] = struct{}{}
	return true
}

// Leave removes a player from the roster.
func (z *Zone) Leave(playerID string) {
	delete(z.Members, playerID)
}
