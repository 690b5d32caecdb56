package world

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

// Virtue is a named reward category. Reward tables are keyed by virtue
// rather than free-form strings so a typo'd key fails validation instead
// of silently dropping the reward.
type Virtue string

const (
	VirtueGratitude  Virtue = "gratitude"
	VirtueCourage    Virtue = "courage"
	VirtueWisdom     Virtue = "wisdom"
	VirtueCompassion Virtue = "compassion"
)

// Virtues lists every valid reward category.
var Virtues = []Virtue{VirtueGratitude, VirtueCourage, VirtueWisdom, VirtueCompassion}

func validVirtue(v Virtue) bool {
	for _, known := range Virtues {
		if v == known {
			return true
		}
	}
	return false
}

// RewardTable is a fixed record of what a completion pays out. Flat per
// template; nothing scales it.
type RewardTable struct {
	XP      int            `json:"xp"`
	Coins   int            `json:"coins"`
	Virtues map[Virtue]int `json:"virtues,omitempty"`
}

// Validate rejects unknown virtue keys and negative amounts.
func (r *RewardTable) Validate() error {
	el := errors.NewErrorList()

	if r.XP < 0 {
		el.Add(fmt.Errorf("xp must not be negative"))
	}
	if r.Coins < 0 {
		el.Add(fmt.Errorf("coins must not be negative"))
	}
	for v, amount := range r.Virtues {
		if !validVirtue(v) {
			el.Add(fmt.Errorf("unknown virtue %q", v))
		}
		if amount < 0 {
			el.Add(fmt.Errorf("virtue %q amount must not be negative", v))
		}
	}

	return el.Err()
}

// Phase is one step of an experience.
type Phase struct {
	ID        string   `json:"id"`
	Prompt    string   `json:"prompt"`
	Tasks     []string `json:"tasks,omitempty"`
	TimeLimit string   `json:"time_limit,omitempty"` // duration string
}

// Milestone is a progress-threshold reward step used by milestone-bearing
// templates. Milestones activate one at a time in ascending order.
type Milestone struct {
	ID        string      `json:"id"`
	Order     int         `json:"order"`
	Threshold int         `json:"threshold"` // overall progress required
	Rewards   RewardTable `json:"rewards"`
}

// Placement modes for experience templates.
const (
	PlaceAnywhere = "anywhere"
	PlaceZone     = "zone"
	PlacePoint    = "point"
)

// Placement describes where an experience is anchored in the world.
type Placement struct {
	Mode   string   `json:"mode"`
	ZoneID string   `json:"zone_id,omitempty"`
	Center Position `json:"center,omitempty"`
	Radius float64  `json:"radius,omitempty"`
}

// ExperienceTemplate is an immutable quest definition loaded from the
// asset store or produced by the template generator.
type ExperienceTemplate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`

	MinParticipants int `json:"min_participants"`
	MaxParticipants int `json:"max_participants"`

	Phases     []Phase     `json:"phases"`
	Milestones []Milestone `json:"milestones,omitempty"`
	Rewards    RewardTable `json:"rewards"`

	Placement Placement `json:"placement"`

	// MaxDuration arms the failure timeout when an instance starts.
	MaxDuration string `json:"max_duration"` // duration string

	// Qualification prerequisites.
	MinRank            int      `json:"min_rank,omitempty"`
	RequiredPowerTypes []string `json:"required_power_types,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (t *ExperienceTemplate) Validate() error {
	el := errors.NewErrorList()

	if t.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if t.MinParticipants < 1 {
		el.Add(fmt.Errorf("min_participants must be at least 1"))
	}
	if t.MaxParticipants < t.MinParticipants {
		el.Add(fmt.Errorf("max_participants must be at least min_participants"))
	}
	if len(t.Phases) == 0 {
		el.Add(fmt.Errorf("at least one phase is required"))
	}
	for i, p := range t.Phases {
		if p.ID == "" {
			el.Add(fmt.Errorf("phase %d: id is required", i))
		}
		if p.TimeLimit != "" {
			if _, err := time.ParseDuration(p.TimeLimit); err != nil {
				el.Add(fmt.Errorf("phase %d: invalid time_limit: %w", i, err))
			}
		}
	}
	for i, m := range t.Milestones {
		if m.Order != i {
			el.Add(fmt.Errorf("milestone %d: order must be %d, got %d", i, i, m.Order))
		}
		el.Add(m.Rewards.Validate())
	}

	switch t.Placement.Mode {
	case PlaceAnywhere, "":
	case PlaceZone:
		if t.Placement.ZoneID == "" {
			el.Add(fmt.Errorf("placement zone_id is required for zone mode"))
		}
	case PlacePoint:
		if t.Placement.Radius <= 0 {
			el.Add(fmt.Errorf("placement radius must be positive for point mode"))
		}
	default:
		el.Add(fmt.Errorf("unknown placement mode %q", t.Placement.Mode))
	}

	if t.MaxDuration == "" {
		el.Add(fmt.Errorf("max_duration is required"))
	} else if d, err := time.ParseDuration(t.MaxDuration); err != nil {
		el.Add(fmt.Errorf("invalid max_duration: %w", err))
	} else if d <= 0 {
		el.Add(fmt.Errorf("max_duration must be positive"))
	}

	el.Add(t.Rewards.Validate())

	return el.Err()
}

// MaxDurationParsed returns the parsed failure timeout. Validate must
// have passed.
func (t *ExperienceTemplate) MaxDurationParsed() time.Duration {
	d, _ := time.ParseDuration(t.MaxDuration)
	return d
}
