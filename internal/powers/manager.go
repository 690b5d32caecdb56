// Package powers runs the power lifecycle: probabilistic spawning across
// the world area, despawn sweeping, and capture-challenge evaluation.
package powers

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/questline/go-geoquest/internal/timers"
	"github.com/questline/go-geoquest/internal/world"
)

// Kind pairs a power type with the display names it can spawn under.
type Kind struct {
	Type  string
	Names []string
}

// DefaultKinds is the built-in spawn catalog.
var DefaultKinds = []Kind{
	{Type: "light", Names: []string{"Dawn Spark", "Lantern Mote", "Sunwell"}},
	{Type: "earth", Names: []string{"Stone Root", "Quiet Moss", "Deep Vein"}},
	{Type: "water", Names: []string{"Still Pool", "River Thread", "Mist Coil"}},
	{Type: "wind", Names: []string{"Leaf Drift", "High Current", "Whisper Gust"}},
}

const (
	// timerPurposeRemove schedules removal of a captured power so late
	// clients still observe the just-captured transition.
	timerPurposeRemove = "power-remove"

	capturedLinger = 5 * time.Second
)

// Config tunes the spawn scheduler.
type Config struct {
	Cap        int           // global active-power cap
	BatchLimit int           // max spawns per burst
	Lifetime   time.Duration // despawn deadline from spawn

	// Optional spawn focus; zero value spawns across the whole world.
	Center *world.Position
	Radius float64
}

// Manager owns no entities; it mutates powers only through the world
// state it was given. Calls are serialized by the room.
type Manager struct {
	state   *world.State
	reg     *timers.Registry
	clock   timers.Clock
	rng     *rand.Rand
	cfg     Config
	kinds   []Kind
	catalog []*ChallengeSpec
}

// NewManager wires the power lifecycle to a room's state.
func NewManager(state *world.State, reg *timers.Registry, clock timers.Clock, rng *rand.Rand, cfg Config, catalog []*ChallengeSpec) *Manager {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 5
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = 10 * time.Minute
	}
	return &Manager{
		state:   state,
		reg:     reg,
		clock:   clock,
		rng:     rng,
		cfg:     cfg,
		kinds:   DefaultKinds,
		catalog: catalog,
	}
}

// SpawnBatch generates powers up to the per-burst limit while the active
// count is below the global cap. Returns the spawned powers.
func (m *Manager) SpawnBatch() []*world.Power {
	var spawned []*world.Power
	now := m.clock.Now()

	for len(spawned) < m.cfg.BatchLimit && m.state.ActivePowerCount() < m.cfg.Cap {
		p, err := m.spawnOne(now)
		if err != nil {
			slog.Warn("spawning power", "error", err)
			break
		}
		m.state.AddPower(p)
		spawned = append(spawned, p)
	}
	return spawned
}

func (m *Manager) spawnOne(now time.Time) (*world.Power, error) {
	rarity := m.rollRarity()
	kind := m.kinds[m.rng.Intn(len(m.kinds))]
	name := kind.Names[m.rng.Intn(len(kind.Names))]

	var pos world.Position
	if m.cfg.Center != nil && m.cfg.Radius > 0 {
		pos = world.RandomWithin(m.rng, *m.cfg.Center, m.cfg.Radius)
		pos = pos.Clamp(m.state.Settings.Width, m.state.Settings.Height)
	} else {
		pos = world.RandomInBounds(m.rng, m.state.Settings.Width, m.state.Settings.Height)
	}

	ch, err := m.buildChallenge(name, kind.Type, rarity)
	if err != nil {
		return nil, err
	}

	return &world.Power{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      kind.Type,
		Rarity:    rarity,
		Pos:       pos,
		Active:    true,
		SpawnedAt: now,
		DespawnAt: now.Add(m.cfg.Lifetime),
		Challenge: ch,
	}, nil
}

// rollRarity samples the tier table by cumulative spawn weight.
func (m *Manager) rollRarity() world.Rarity {
	total := 0
	for _, t := range world.RarityTable {
		total += t.SpawnWeight
	}
	roll := m.rng.Intn(total)
	for _, t := range world.RarityTable {
		roll -= t.SpawnWeight
		if roll < 0 {
			return t.Rarity
		}
	}
	return world.RarityCommon
}

func (m *Manager) buildChallenge(name, typ string, rarity world.Rarity) (world.Challenge, error) {
	if len(m.catalog) == 0 {
		return world.Challenge{}, fmt.Errorf("challenge catalog is empty")
	}
	spec := m.catalog[m.rng.Intn(len(m.catalog))]
	return spec.Build(name, typ, rarity)
}

// SweepExpired removes powers past their despawn deadline or already
// deactivated. Returns the ids removed.
func (m *Manager) SweepExpired(now time.Time) []string {
	var removed []string
	m.state.ForEachPower(func(p *world.Power) {
		if !p.Active && !m.reg.Pending(timers.Key{EntityID: p.ID, Purpose: timerPurposeRemove}) {
			removed = append(removed, p.ID)
			return
		}
		if p.Active && p.Expired(now) {
			p.Active = false
			removed = append(removed, p.ID)
		}
	})
	for _, id := range removed {
		m.reg.CancelEntity(id)
		m.state.RemovePower(id)
	}
	return removed
}

// Interact validates a detail request against existence, activity, and
// interaction range.
func (m *Manager) Interact(player *world.Player, powerID string) (*world.Power, error) {
	return m.reachablePower(player, powerID)
}

// CaptureResult reports the outcome of a capture attempt.
type CaptureResult struct {
	Captured bool
	Power    *world.Power
	Reward   int
}

// Capture re-validates the power, evaluates the challenge response, and
// draws one success bit. A success mutates the player's owned set and
// counters, deactivates the power, and schedules late removal; a failure
// mutates nothing.
func (m *Manager) Capture(player *world.Player, powerID string, resp Response) (CaptureResult, error) {
	p, err := m.reachablePower(player, powerID)
	if err != nil {
		return CaptureResult{}, err
	}

	chance, ok := CaptureChance(p.Rarity, p.Challenge, resp)
	success := ok && m.rng.Float64() < chance
	if !success {
		return CaptureResult{Captured: false, Power: p}, nil
	}

	reward := p.Rarity.Tier().RewardValue
	player.GrantPower(p.ID, p.Type)
	player.Award(world.RewardTable{XP: reward, Coins: reward / 2})

	p.Active = false
	m.reg.Schedule(
		timers.Key{EntityID: p.ID, Purpose: timerPurposeRemove},
		m.clock.Now().Add(capturedLinger),
		func() { m.state.RemovePower(p.ID) },
	)

	return CaptureResult{Captured: true, Power: p, Reward: reward}, nil
}

func (m *Manager) reachablePower(player *world.Player, powerID string) (*world.Power, error) {
	p := m.state.Power(powerID)
	if p == nil {
		return nil, world.ErrPowerNotFound
	}
	if !p.Active {
		return nil, world.ErrPowerNotActive
	}
	if player.Pos.Distance(p.Pos) > m.state.Settings.InteractionRadius {
		return nil, world.ErrTooFar
	}
	return p, nil
}
