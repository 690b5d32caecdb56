// Package session manages connection lifecycle: join, graceful and
// abrupt leave with a reconnection grace window, and inactivity sweeps.
package session

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/questline/go-geoquest/internal/experience"
	"github.com/questline/go-geoquest/internal/ratelimit"
	"github.com/questline/go-geoquest/internal/timers"
	"github.com/questline/go-geoquest/internal/world"
	"github.com/questline/go-geoquest/internal/zones"
)

const timerPurposeRemove = "session-remove"

// spawnSpread is how far from the origin a player without geolocation
// lands.
const spawnSpread = 50.0

// Config tunes lifecycle timing. Zero values fall back to the world
// settings.
type Config struct {
	ReconnectGrace time.Duration
	InactiveAfter  time.Duration
	DeleteAfter    time.Duration
}

// Manager owns connection lifecycle for one room. Calls are serialized
// by the room.
type Manager struct {
	state   *world.State
	limiter *ratelimit.Limiter
	tracker *zones.Tracker
	exp     *experience.Manager
	reg     *timers.Registry
	clock   timers.Clock
	rng     *rand.Rand
	cfg     Config
}

// NewManager wires the lifecycle manager to a room.
func NewManager(state *world.State, limiter *ratelimit.Limiter, tracker *zones.Tracker, exp *experience.Manager, reg *timers.Registry, clock timers.Clock, rng *rand.Rand, cfg Config) *Manager {
	if cfg.ReconnectGrace <= 0 {
		cfg.ReconnectGrace = 30 * time.Second
	}
	if cfg.InactiveAfter <= 0 {
		cfg.InactiveAfter = 5 * time.Minute
	}
	if cfg.DeleteAfter <= 0 {
		cfg.DeleteAfter = time.Hour
	}
	return &Manager{
		state:   state,
		limiter: limiter,
		tracker: tracker,
		exp:     exp,
		reg:     reg,
		clock:   clock,
		rng:     rng,
		cfg:     cfg,
	}
}

// Join creates the player for a new connection, or reattaches a linkless
// player reconnecting inside the grace window. Position comes from the
// client geolocation when supplied, else lands near the origin.
func (m *Manager) Join(connID, userID, name string, geo *world.Position) (*world.Player, error) {
	now := m.clock.Now()

	if userID != "" {
		if existing := m.state.Player(userID); existing != nil {
			return m.reattach(existing, connID, now)
		}
	}

	id := userID
	if id == "" {
		id = uuid.New().String()
	}

	var pos world.Position
	if geo != nil {
		pos = geo.Clamp(m.state.Settings.Width, m.state.Settings.Height)
	} else {
		pos = world.RandomWithin(m.rng, world.Position{}, spawnSpread)
		pos = pos.Clamp(m.state.Settings.Width, m.state.Settings.Height)
	}

	p := &world.Player{
		ID:           id,
		ConnID:       connID,
		Name:         name,
		Pos:          pos,
		Activity:     world.ActivityIdle,
		Active:       true,
		LastActivity: now,
	}
	if err := m.state.AddPlayer(p); err != nil {
		return nil, err
	}
	m.limiter.Register(connID)

	// Entering the world may already place the player inside a zone.
	m.tracker.Update(p)

	return p, nil
}

// reattach binds a new connection to an existing player. A linkless
// player cancels their pending removal; a live one is taken over by the
// newer connection.
func (m *Manager) reattach(p *world.Player, connID string, now time.Time) (*world.Player, error) {
	m.reg.Cancel(timers.Key{EntityID: p.ID, Purpose: timerPurposeRemove})

	oldConn := p.ConnID
	if oldConn != "" && oldConn != connID {
		m.limiter.Unregister(oldConn)
	}
	if err := m.state.BindConn(connID, p.ID); err != nil {
		return nil, err
	}
	p.Reattach(connID, now)
	m.limiter.Register(connID)

	slog.Info("player reattached", "player", p.ID, "conn", connID)
	return p, nil
}

// Leave handles a disconnect. A client-consented leave finalizes
// immediately; an abrupt drop holds the slot open for the reconnection
// window first.
func (m *Manager) Leave(connID string, consented bool) error {
	p := m.state.PlayerByConn(connID)
	if p == nil {
		return world.ErrPlayerNotFound
	}

	m.limiter.Unregister(connID)

	if consented {
		m.finalize(p)
		return nil
	}

	now := m.clock.Now()
	p.MarkLinkless(now)
	playerID := p.ID
	m.reg.Schedule(
		timers.Key{EntityID: playerID, Purpose: timerPurposeRemove},
		now.Add(m.cfg.ReconnectGrace),
		func() {
			if p := m.state.Player(playerID); p != nil && p.Linkless {
				m.finalize(p)
			}
		},
	)
	return nil
}

// finalize removes the player for good: zone roster, experience
// participation, rate-limit state, pending timers, then the entity.
func (m *Manager) finalize(p *world.Player) {
	m.reg.CancelEntity(p.ID)
	m.tracker.Detach(p)
	m.exp.LeaveAll(p)
	if p.ConnID != "" {
		m.limiter.Unregister(p.ConnID)
	}
	if err := m.state.RemovePlayer(p.ID); err != nil {
		slog.Warn("removing player", "player", p.ID, "error", err)
	}
}

// SweepInactive marks idle players inactive so stale presence stops
// holding zone capacity, and deletes players dead past the long horizon.
func (m *Manager) SweepInactive(now time.Time) {
	var dead []*world.Player
	m.state.ForEachPlayer(func(p *world.Player) {
		idle := now.Sub(p.LastActivity)
		if p.Active && idle > m.cfg.InactiveAfter {
			p.Active = false
			m.tracker.Detach(p)
		}
		if !p.Active && idle > m.cfg.DeleteAfter {
			dead = append(dead, p)
		}
	})
	for _, p := range dead {
		slog.Info("removing long-inactive player", "player", p.ID)
		m.finalize(p)
	}
}
