// Package zones maintains geofence membership: containment tests,
// enter/exit transition detection, and zone roster upkeep.
package zones

import (
	"github.com/questline/go-geoquest/internal/world"
)

// TransitionKind distinguishes enter from exit events.
type TransitionKind int

const (
	Entered TransitionKind = iota
	Exited
)

// Transition is one zone membership change for a player.
type Transition struct {
	Kind     TransitionKind
	PlayerID string
	ZoneID   string
}

// Tracker routes all membership mutation through the world state so
// rosters and player zone pointers never drift apart.
type Tracker struct {
	state *world.State
}

// NewTracker creates a tracker over the room's state.
func NewTracker(state *world.State) *Tracker {
	return &Tracker{state: state}
}

// Update re-evaluates the player's containing zone after a move. When
// several zones contain the position the smallest radius wins (most
// specific match). Returns the transitions that fired; repeated updates
// inside the same zone produce none.
func (t *Tracker) Update(p *world.Player) []Transition {
	best := t.bestZone(p.Pos)

	bestID := ""
	if best != nil {
		bestID = best.ID
	}
	if bestID == p.ZoneID {
		return nil
	}

	var out []Transition
	if p.ZoneID != "" {
		if old := t.state.Zone(p.ZoneID); old != nil {
			old.Leave(p.ID)
		}
		out = append(out, Transition{Kind: Exited, PlayerID: p.ID, ZoneID: p.ZoneID})
		p.ZoneID = ""
	}
	if best != nil {
		// A full roster silently refuses the join; the player stays
		// zoneless rather than holding a phantom membership.
		if best.Join(p.ID) {
			p.ZoneID = best.ID
			out = append(out, Transition{Kind: Entered, PlayerID: p.ID, ZoneID: best.ID})
		}
	}
	return out
}

// Enter handles an explicit zone:enter request. The player must actually
// be inside the zone's geofence.
func (t *Tracker) Enter(p *world.Player, zoneID string) (Transition, error) {
	z := t.state.Zone(zoneID)
	if z == nil {
		return Transition{}, world.ErrZoneNotFound
	}
	if !z.Contains(p.Pos) {
		return Transition{}, world.ErrTooFar
	}
	if p.ZoneID == zoneID {
		return Transition{Kind: Entered, PlayerID: p.ID, ZoneID: zoneID}, nil
	}
	// A full zone rejects before any roster mutation so the player's
	// current membership survives the error.
	if z.Full() {
		return Transition{}, world.ErrZoneFull
	}
	if p.ZoneID != "" {
		if old := t.state.Zone(p.ZoneID); old != nil {
			old.Leave(p.ID)
		}
		p.ZoneID = ""
	}
	if !z.Join(p.ID) {
		return Transition{}, world.ErrZoneFull
	}
	p.ZoneID = zoneID
	return Transition{Kind: Entered, PlayerID: p.ID, ZoneID: zoneID}, nil
}

// Exit handles an explicit zone:exit request.
func (t *Tracker) Exit(p *world.Player, zoneID string) (Transition, error) {
	z := t.state.Zone(zoneID)
	if z == nil {
		return Transition{}, world.ErrZoneNotFound
	}
	if p.ZoneID != zoneID {
		return Transition{}, world.ErrZoneNotFound
	}
	z.Leave(p.ID)
	p.ZoneID = ""
	return Transition{Kind: Exited, PlayerID: p.ID, ZoneID: zoneID}, nil
}

// Detach removes the player from whatever zone holds them, without
// emitting a transition. Used by final connection teardown.
func (t *Tracker) Detach(p *world.Player) {
	if p.ZoneID == "" {
		return
	}
	if z := t.state.Zone(p.ZoneID); z != nil {
		z.Leave(p.ID)
	}
	p.ZoneID = ""
}

func (t *Tracker) bestZone(pos world.Position) *world.Zone {
	var best *world.Zone
	t.state.ForEachZone(func(z *world.Zone) {
		if !z.Active || !z.Contains(pos) {
			return
		}
		if best == nil || z.Radius < best.Radius {
			best = z
		}
	})
	return best
}
