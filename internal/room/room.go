// Package room hosts one authoritative simulation instance: message
// dispatch, the periodic tick, and visibility broadcasting. All state
// mutation for a room happens under its single mutex, either inside a
// message handler or inside the tick, so there is no intra-room
// parallelism to reason about.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/questline/go-geoquest/internal/experience"
	"github.com/questline/go-geoquest/internal/powers"
	"github.com/questline/go-geoquest/internal/ratelimit"
	"github.com/questline/go-geoquest/internal/session"
	"github.com/questline/go-geoquest/internal/timers"
	"github.com/questline/go-geoquest/internal/world"
	"github.com/questline/go-geoquest/internal/zones"
)

// Publisher delivers a point-to-point message to a named connection.
// Implemented by the messaging layer.
type Publisher interface {
	Publish(connID string, data []byte) error
}

// Config tunes the room's scheduling intervals.
type Config struct {
	BroadcastThrottle time.Duration // min gap between visibility pushes
	SpawnInterval     time.Duration // power spawn bursts
	SweepInterval     time.Duration // despawn + inactivity sweeps
	TemplateSync      time.Duration // experience template generation

	// MaxMoveStep bounds how far a single move message may jump.
	MaxMoveStep float64
}

func (c *Config) applyDefaults() {
	if c.BroadcastThrottle <= 0 {
		c.BroadcastThrottle = 500 * time.Millisecond
	}
	if c.SpawnInterval <= 0 {
		c.SpawnInterval = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 10 * time.Second
	}
	if c.TemplateSync <= 0 {
		c.TemplateSync = 5 * time.Minute
	}
	if c.MaxMoveStep <= 0 {
		c.MaxMoveStep = 100
	}
}

// Room composes the managers over one shared world state.
type Room struct {
	mu sync.Mutex

	id    string
	state *world.State
	reg   *timers.Registry
	clock timers.Clock
	cfg   Config

	limiter *ratelimit.Limiter
	pow     *powers.Manager
	tracker *zones.Tracker
	exp     *experience.Manager
	sess    *session.Manager
	gen     *experience.Generator

	pub Publisher

	// Connections that moved since the last visibility push.
	pending map[string]struct{}

	lastBroadcast time.Time
	lastSpawn     time.Time
	lastSweep     time.Time
	lastTplSync   time.Time
}

// Deps bundles the collaborators a room is built from.
type Deps struct {
	ID      string
	State   *world.State
	Reg     *timers.Registry
	Clock   timers.Clock
	Rand    *rand.Rand
	Limiter *ratelimit.Limiter
	Powers  *powers.Manager
	Tracker *zones.Tracker
	Gen     *experience.Generator
	Pub     Publisher
	Config  Config
}

// New assembles a room. The experience manager is created here so its
// notifications route through the room's publisher.
func New(deps Deps, expCfg experience.Config) *Room {
	deps.Config.applyDefaults()
	r := &Room{
		id:      deps.ID,
		state:   deps.State,
		reg:     deps.Reg,
		clock:   deps.Clock,
		cfg:     deps.Config,
		limiter: deps.Limiter,
		pow:     deps.Powers,
		tracker: deps.Tracker,
		gen:     deps.Gen,
		pub:     deps.Pub,
		pending: make(map[string]struct{}),
	}
	r.exp = experience.NewManager(deps.State, deps.Reg, deps.Clock, experience.NotifierFunc(r.notifyParticipant), expCfg)
	r.sess = session.NewManager(deps.State, deps.Limiter, deps.Tracker, r.exp, deps.Reg, deps.Clock, deps.Rand, session.Config{
		ReconnectGrace: deps.State.Settings.ReconnectGrace,
		InactiveAfter:  deps.State.Settings.InactiveAfter,
		DeleteAfter:    deps.State.Settings.DeleteAfter,
	})
	return r
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// Experiences exposes the instance state machine, mainly for tests.
func (r *Room) Experiences() *experience.Manager { return r.exp }

// HandleMessage decodes and dispatches one inbound message from a
// connection. Handler errors never escape: they become error messages to
// the originating connection only.
func (r *Room) HandleMessage(connID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Debug("dropping malformed message", "room", r.id, "conn", connID, "error", err)
		return
	}

	if err := r.dispatch(connID, &env); err != nil {
		code, retryable := codeFor(err)
		r.send(connID, MsgError, errorMsg{Code: code, Message: err.Error(), Retryable: retryable})
	}
}

func (r *Room) dispatch(connID string, env *Envelope) error {
	// Session control frames carry no player yet and skip rate limiting.
	switch env.Type {
	case MsgSessionJoin:
		return r.handleSessionJoin(connID, env.Data)
	case MsgSessionLeave:
		return r.handleSessionLeave(connID, env.Data)
	}

	p := r.state.PlayerByConn(connID)
	if p == nil {
		return world.ErrPlayerNotFound
	}

	class := ratelimit.Action
	if env.Type == MsgMove {
		class = ratelimit.Movement
	}
	if !r.limiter.Allow(connID, class) {
		// Rate-limited movement is dropped silently; actions get a
		// retry hint.
		if class == ratelimit.Action {
			r.send(connID, MsgError, errorMsg{Code: CodeRateLimited, Retryable: true})
		}
		return nil
	}

	p.Touch(r.clock.Now())

	switch env.Type {
	case MsgMove:
		return r.handleMove(connID, p, env.Data)
	case MsgPowerDetail:
		return r.handlePowerDetail(connID, p, env.Data)
	case MsgPowerCapture:
		return r.handlePowerCapture(connID, p, env.Data)
	case MsgZoneEnter:
		return r.handleZoneEnter(connID, p, env.Data)
	case MsgZoneExit:
		return r.handleZoneExit(connID, p, env.Data)
	case MsgPlayerStatus:
		return r.handlePlayerStatus(p, env.Data)
	case MsgExpJoin:
		return r.handleExpJoin(p, env.Data)
	case MsgExpPhase:
		return r.handleExpPhase(p, env.Data)
	case MsgExpLeave:
		return r.handleExpLeave(p, env.Data)
	case MsgPing:
		return r.handlePing(connID, env.Data)
	default:
		slog.Debug("dropping unknown message type", "room", r.id, "type", env.Type)
		return nil
	}
}

// Tick advances the room one step: due timers, sweeps, spawn bursts,
// derived counters, and the throttled visibility broadcast.
func (r *Room) Tick(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()

	r.reg.Fire(now)

	if now.Sub(r.lastSweep) >= r.cfg.SweepInterval {
		r.lastSweep = now
		if removed := r.pow.SweepExpired(now); len(removed) > 0 {
			slog.DebugContext(ctx, "swept powers", "room", r.id, "count", len(removed))
		}
		r.sess.SweepInactive(now)
	}

	if now.Sub(r.lastSpawn) >= r.cfg.SpawnInterval {
		r.lastSpawn = now
		if spawned := r.pow.SpawnBatch(); len(spawned) > 0 {
			slog.InfoContext(ctx, "spawned powers", "room", r.id, "count", len(spawned))
			r.markAllPending()
		}
	}

	if r.gen != nil && now.Sub(r.lastTplSync) >= r.cfg.TemplateSync {
		r.lastTplSync = now
		r.gen.Sync()
	}

	r.state.RecomputeCounters()

	if len(r.pending) > 0 && now.Sub(r.lastBroadcast) >= r.cfg.BroadcastThrottle {
		r.lastBroadcast = now
		r.broadcastPending()
	}

	return nil
}

// notifyParticipant routes an experience event to the participant's
// connection, skipping players with no live link.
func (r *Room) notifyParticipant(playerID string, ev experience.Event) {
	p := r.state.Player(playerID)
	if p == nil || p.ConnID == "" || p.Linkless {
		return
	}
	r.send(p.ConnID, string(ev.Type), ev)
}

// send marshals and publishes one outbound message. Publish failures are
// logged, never propagated: a dead connection must not poison the room.
func (r *Room) send(connID, msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshalling outbound message", "room", r.id, "type", msgType, "error", err)
		return
	}
	env, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		slog.Error("marshalling envelope", "room", r.id, "type", msgType, "error", err)
		return
	}
	if err := r.pub.Publish(connID, env); err != nil {
		slog.Warn("publishing to connection", "room", r.id, "conn", connID, "error", err)
	}
}

func (r *Room) markPending(connID string) {
	r.pending[connID] = struct{}{}
}

func (r *Room) markAllPending() {
	r.state.ForEachPlayer(func(p *world.Player) {
		if p.ConnID != "" && !p.Linkless {
			r.pending[p.ConnID] = struct{}{}
		}
	})
}

func (r *Room) broadcastPending() {
	for connID := range r.pending {
		p := r.state.PlayerByConn(connID)
		if p == nil || p.Linkless {
			continue
		}
		r.send(connID, MsgWorldVisible, r.visibleWorld(p))
	}
	clear(r.pending)
}

var _ fmt.Stringer = (*Room)(nil)

func (r *Room) String() string {
	return fmt.Sprintf("room %s", r.id)
}
