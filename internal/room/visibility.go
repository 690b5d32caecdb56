package room

import (
	"github.com/questline/go-geoquest/internal/world"
)

// visibleWorld builds the filtered snapshot for one player: entities
// within the culling radius of their position. Inactive powers are never
// included, so a power deactivated between sweeps is invisible to
// late-joining clients.
func (r *Room) visibleWorld(p *world.Player) visibleWorldMsg {
	radius := r.state.Settings.VisibilityRadius
	msg := visibleWorldMsg{
		Players:          []*world.Player{},
		Powers:           []*world.Power{},
		Zones:            []*world.Zone{},
		Counters:         r.state.Counters,
		VisibilityRadius: radius,
	}

	r.state.ForEachPlayer(func(other *world.Player) {
		if !other.Active {
			return
		}
		if p.Pos.Distance(other.Pos) <= radius {
			msg.Players = append(msg.Players, other)
		}
	})

	r.state.ForEachPower(func(pow *world.Power) {
		if !pow.Active {
			return
		}
		if p.Pos.Distance(pow.Pos) <= radius {
			msg.Powers = append(msg.Powers, pow)
		}
	})

	r.state.ForEachZone(func(z *world.Zone) {
		if !z.Active {
			return
		}
		// A zone is visible when any part of its circle is in range.
		if p.Pos.Distance(z.Center) <= radius+z.Radius {
			msg.Zones = append(msg.Zones, z)
		}
	})

	return msg
}
