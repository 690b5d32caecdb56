package world

import (
	"fmt"
	"time"
)

// Rarity orders power tiers from most to least common.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = [...]string{"common", "uncommon", "rare", "epic", "legendary"}

func (r Rarity) String() string {
	if r < RarityCommon || r > RarityLegendary {
		return fmt.Sprintf("rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// MarshalText makes rarity render as its name on the wire.
func (r Rarity) MarshalText() ([]byte, error) {
	if r < RarityCommon || r > RarityLegendary {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(rarityNames[r]), nil
}

func (r *Rarity) UnmarshalText(text []byte) error {
	for i, name := range rarityNames {
		if string(text) == name {
			*r = Rarity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rarity %q", text)
}

// RarityTier describes spawn and capture behavior for one rarity.
type RarityTier struct {
	Rarity      Rarity
	SpawnWeight int
	RewardValue int
	// BaseCapture is the success probability before any response-quality
	// bonus. Strictly decreasing with rarity.
	BaseCapture float64
}

// RarityTable holds the tiers in ascending rarity order. The exact
// constants are tunable; only the monotonic shape is load-bearing.
var RarityTable = [...]RarityTier{
	{RarityCommon, 50, 10, 0.90},
	{RarityUncommon, 30, 25, 0.75},
	{RarityRare, 15, 50, 0.55},
	{RarityEpic, 4, 100, 0.35},
	{RarityLegendary, 1, 250, 0.20},
}

// Tier returns the table entry for the rarity.
func (r Rarity) Tier() RarityTier {
	if r < RarityCommon || r > RarityLegendary {
		return RarityTable[RarityCommon]
	}
	return RarityTable[r]
}

// ChallengeKind discriminates the capture challenge variants.
type ChallengeKind string

const (
	ChallengeText   ChallengeKind = "text"
	ChallengeChoice ChallengeKind = "choice"
)

// Challenge is the prompt gating a power capture. Exactly one of the
// variant fields is meaningful depending on Kind.
type Challenge struct {
	Kind   ChallengeKind `json:"kind"`
	Prompt string        `json:"prompt"`

	// Text challenges: minimum response length for full credit.
	MinLength int `json:"minLength,omitempty"`

	// Choice challenges: options with the index of the correct answer.
	// The answer index is never serialized to clients.
	Options []string `json:"options,omitempty"`
	Answer  int      `json:"-"`
}

// Power is a collectible timed entity. It is created by the spawn
// scheduler and never mutated afterwards except for deactivation.
type Power struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Rarity    Rarity    `json:"rarity"`
	Pos       Position  `json:"position"`
	Active    bool      `json:"isActive"`
	SpawnedAt time.Time `json:"spawnedAt"`
	DespawnAt time.Time `json:"despawnAt"`
	Challenge Challenge `json:"challenge"`
}

// Expired reports whether the power's despawn deadline has passed.
func (p *Power) Expired(now time.Time) bool {
	return !now.Before(p.DespawnAt)
}
