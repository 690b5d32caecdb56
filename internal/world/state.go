package world

import (
	"time"
)

// Settings are the room's tunable world parameters. Read-only after
// construction.
type Settings struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	VisibilityRadius  float64 `json:"visibilityRadius"`
	InteractionRadius float64 `json:"interactionRadius"`

	PowerCap       int           `json:"powerCap"`
	PowerLifetime  time.Duration `json:"-"`
	InactiveAfter  time.Duration `json:"-"`
	DeleteAfter    time.Duration `json:"-"`
	ReconnectGrace time.Duration `json:"-"`
}

// Counters are derived per-tick aggregates pushed with the synchronized
// state.
type Counters struct {
	ActivePlayers   int `json:"activePlayers"`
	ActivePowers    int `json:"activePowers"`
	ActiveZones     int `json:"activeZones"`
	ActiveInstances int `json:"activeInstances"`
}

// State is the room's single source of truth. It exclusively owns every
// entity; managers hold keyed lookups only and route all mutation back
// through it. Callers serialize access — one room runs on one logical
// thread (the room mutex), so State itself carries no lock.
type State struct {
	Settings Settings
	Counters Counters

	players map[string]*Player // by user id
	conns   map[string]string  // connection id -> user id
	powers  map[string]*Power
	zones   map[string]*Zone

	templates map[string]*ExperienceTemplate
	instances map[string]*ExperienceInstance
}

// NewState creates an empty world with the given settings.
func NewState(settings Settings) *State {
	return &State{
		Settings:  settings,
		players:   make(map[string]*Player),
		conns:     make(map[string]string),
		powers:    make(map[string]*Power),
		zones:     make(map[string]*Zone),
		templates: make(map[string]*ExperienceTemplate),
		instances: make(map[string]*ExperienceInstance),
	}
}

// AddPlayer registers a new player and its connection binding.
func (s *State) AddPlayer(p *Player) error {
	if _, exists := s.players[p.ID]; exists {
		return ErrPlayerExists
	}
	s.players[p.ID] = p
	if p.ConnID != "" {
		s.conns[p.ConnID] = p.ID
	}
	return nil
}

// RemovePlayer deletes a player and any connection binding.
func (s *State) RemovePlayer(playerID string) error {
	p, exists := s.players[playerID]
	if !exists {
		return ErrPlayerNotFound
	}
	delete(s.conns, p.ConnID)
	delete(s.players, playerID)
	return nil
}

// Player returns the player by user id, or nil.
func (s *State) Player(playerID string) *Player {
	return s.players[playerID]
}

// PlayerByConn resolves a connection id to its player, or nil.
func (s *State) PlayerByConn(connID string) *Player {
	id, ok := s.conns[connID]
	if !ok {
		return nil
	}
	return s.players[id]
}

// BindConn points a connection id at a player, replacing any previous
// binding for that player (reconnection).
func (s *State) BindConn(connID, playerID string) error {
	p, exists := s.players[playerID]
	if !exists {
		return ErrPlayerNotFound
	}
	if p.ConnID != "" {
		delete(s.conns, p.ConnID)
	}
	p.ConnID = connID
	s.conns[connID] = playerID
	return nil
}

// ForEachPlayer calls fn for every player.
func (s *State) ForEachPlayer(fn func(*Player)) {
	for _, p := range s.players {
		fn(p)
	}
}

// PlayerCount returns the number of registered players.
func (s *State) PlayerCount() int {
	return len(s.players)
}

// AddPower registers a spawned power.
func (s *State) AddPower(p *Power) {
	s.powers[p.ID] = p
}

// RemovePower deletes a power.
func (s *State) RemovePower(powerID string) {
	delete(s.powers, powerID)
}

// Power returns the power by id, or nil.
func (s *State) Power(powerID string) *Power {
	return s.powers[powerID]
}

// ForEachPower calls fn for every power.
func (s *State) ForEachPower(fn func(*Power)) {
	for _, p := range s.powers {
		fn(p)
	}
}

// ActivePowerCount returns the number of powers still active.
func (s *State) ActivePowerCount() int {
	n := 0
	for _, p := range s.powers {
		if p.Active {
			n++
		}
	}
	return n
}

// AddZone registers a zone.
func (s *State) AddZone(z *Zone) {
	s.zones[z.ID] = z
}

// Zone returns the zone by id, or nil.
func (s *State) Zone(zoneID string) *Zone {
	return s.zones[zoneID]
}

// ForEachZone calls fn for every zone.
func (s *State) ForEachZone(fn func(*Zone)) {
	for _, z := range s.zones {
		fn(z)
	}
}

// AddTemplate registers an experience template.
func (s *State) AddTemplate(t *ExperienceTemplate) {
	s.templates[t.ID] = t
}

// Template returns the template by id, or nil.
func (s *State) Template(id string) *ExperienceTemplate {
	return s.templates[id]
}

// ForEachTemplate calls fn for every experience template.
func (s *State) ForEachTemplate(fn func(*ExperienceTemplate)) {
	for _, t := range s.templates {
		fn(t)
	}
}

// AddInstance registers an experience instance.
func (s *State) AddInstance(i *ExperienceInstance) {
	s.instances[i.ID] = i
}

// RemoveInstance deletes an experience instance.
func (s *State) RemoveInstance(id string) {
	delete(s.instances, id)
}

// Instance returns the instance by id, or nil.
func (s *State) Instance(id string) *ExperienceInstance {
	return s.instances[id]
}

// ForEachInstance calls fn for every experience instance.
func (s *State) ForEachInstance(fn func(*ExperienceInstance)) {
	for _, i := range s.instances {
		fn(i)
	}
}

// OpenInstance finds a Scheduled instance of the template in the given
// zone with free capacity, or nil.
func (s *State) OpenInstance(templateID, zoneID string, maxParticipants int) *ExperienceInstance {
	for _, inst := range s.instances {
		if inst.TemplateID != templateID || inst.ZoneID != zoneID {
			continue
		}
		if inst.Status != StatusScheduled {
			continue
		}
		if inst.ActiveCount() < maxParticipants {
			return inst
		}
	}
	return nil
}

// RecomputeCounters refreshes the derived aggregates.
func (s *State) RecomputeCounters() {
	c := Counters{}
	for _, p := range s.players {
		if p.Active {
			c.ActivePlayers++
		}
	}
	for _, p := range s.powers {
		if p.Active {
			c.ActivePowers++
		}
	}
	for _, z := range s.zones {
		if z.Active {
			c.ActiveZones++
		}
	}
	for _, i := range s.instances {
		if !i.Status.Terminal() {
			c.ActiveInstances++
		}
	}
	s.Counters = c
}
