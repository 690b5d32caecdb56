package world

import (
	"fmt"
	"time"
)

// PlayerActivity is the player's current movement/interaction state as
// reported by the client and validated by the room.
type PlayerActivity string

const (
	ActivityIdle        PlayerActivity = "idle"
	ActivityMoving      PlayerActivity = "moving"
	ActivityInteracting PlayerActivity = "interacting"
	ActivityCapturing   PlayerActivity = "capturing"
)

// ParseActivity validates a client-supplied activity string.
func ParseActivity(s string) (PlayerActivity, error) {
	switch PlayerActivity(s) {
	case ActivityIdle, ActivityMoving, ActivityInteracting, ActivityCapturing:
		return PlayerActivity(s), nil
	default:
		return "", fmt.Errorf("unknown player activity %q", s)
	}
}

// Player holds all mutable state for one participant in the room.
// The user id is stable across reconnects; the connection id is not.
type Player struct {
	ID     string `json:"id"`
	ConnID string `json:"-"`
	Name   string `json:"name"`

	Pos      Position       `json:"position"`
	Activity PlayerActivity `json:"state"`

	Active       bool      `json:"isActive"`
	LastActivity time.Time `json:"-"`

	// ZoneID is a weak reference maintained by the zone tracker.
	// Empty means the player is not inside any zone.
	ZoneID string `json:"currentZoneId,omitempty"`

	OwnedPowers map[string]struct{} `json:"-"`
	OwnedTypes  map[string]int      `json:"-"`

	Rank    int            `json:"rank"`
	XP      int            `json:"xp"`
	Coins   int            `json:"coins"`
	Virtues map[Virtue]int `json:"virtues,omitempty"`

	// Linkless connection state: the transport dropped but the player is
	// held for a reconnection window before final removal.
	Linkless   bool      `json:"-"`
	LinklessAt time.Time `json:"-"`
}

// Touch resets the player's idle timer and reactivates a stale player.
func (p *Player) Touch(now time.Time) {
	p.LastActivity = now
	p.Active = true
}

// OwnsPower reports whether the player has captured the given power.
func (p *Player) OwnsPower(powerID string) bool {
	_, ok := p.OwnedPowers[powerID]
	return ok
}

// GrantPower records a captured power on the player. The type tally
// survives the power's eventual removal from world state, so experience
// qualification can still see it.
func (p *Player) GrantPower(powerID, powerType string) {
	if p.OwnedPowers == nil {
		p.OwnedPowers = make(map[string]struct{})
	}
	if p.OwnedTypes == nil {
		p.OwnedTypes = make(map[string]int)
	}
	p.OwnedPowers[powerID] = struct{}{}
	p.OwnedTypes[powerType]++
}

// OwnsType reports whether the player has captured any power of the type.
func (p *Player) OwnsType(powerType string) bool {
	return p.OwnedTypes[powerType] > 0
}

// Award applies a reward table to the player's counters and refreshes
// rank from the new XP total.
func (p *Player) Award(r RewardTable) {
	p.XP += r.XP
	p.Coins += r.Coins
	if len(r.Virtues) > 0 && p.Virtues == nil {
		p.Virtues = make(map[Virtue]int)
	}
	for v, amount := range r.Virtues {
		p.Virtues[v] += amount
	}
	p.Rank = RankForXP(p.XP)
}

// MarkLinkless flags the player as awaiting reconnection.
func (p *Player) MarkLinkless(now time.Time) {
	p.Linkless = true
	p.LinklessAt = now
}

// Reattach clears linkless state after a successful reconnection.
func (p *Player) Reattach(connID string, now time.Time) {
	p.ConnID = connID
	p.Linkless = false
	p.LinklessAt = time.Time{}
	p.Touch(now)
}
