package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/questline/go-geoquest/internal/experience"
	"github.com/questline/go-geoquest/internal/powers"
	"github.com/questline/go-geoquest/internal/ratelimit"
	"github.com/questline/go-geoquest/internal/room"
	"github.com/questline/go-geoquest/internal/world"
)

type RoomConfig struct {
	Id string `json:"id"`

	World       WorldConfig      `json:"world"`
	RateLimit   RateLimitConfig  `json:"rate_limit"`
	Powers      PowersConfig     `json:"powers"`
	Experiences ExperienceConfig `json:"experiences"`
	Timing      TimingConfig     `json:"timing"`
}

func (c *RoomConfig) validate() error {
	el := errors.NewErrorList()

	if c.Id == "" {
		el.Add(fmt.Errorf("room id is required"))
	}

	el.Add(c.World.validate())
	el.Add(c.RateLimit.validate())
	el.Add(c.Powers.validate())
	el.Add(c.Experiences.validate())
	el.Add(c.Timing.validate())

	return el.Err()
}

// parseDuration resolves an optional duration string, falling back to
// def when unset. Validation has already rejected malformed values, so
// parse errors here also fall back.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// validateDuration checks that an optional duration string parses.
func validateDuration(name, s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

type WorldConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	VisibilityRadius  float64 `json:"visibility_radius"`
	InteractionRadius float64 `json:"interaction_radius"`

	InactiveAfter  string `json:"inactive_after"`
	DeleteAfter    string `json:"delete_after"`
	ReconnectGrace string `json:"reconnect_grace"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.Width <= 0 || c.Height <= 0 {
		el.Add(fmt.Errorf("world dimensions must be positive"))
	}
	if c.VisibilityRadius <= 0 {
		el.Add(fmt.Errorf("visibility_radius must be positive"))
	}
	if c.InteractionRadius <= 0 {
		el.Add(fmt.Errorf("interaction_radius must be positive"))
	}
	if c.InteractionRadius > c.VisibilityRadius {
		el.Add(fmt.Errorf("interaction_radius cannot exceed visibility_radius"))
	}

	el.Add(validateDuration("inactive_after", c.InactiveAfter))
	el.Add(validateDuration("delete_after", c.DeleteAfter))
	el.Add(validateDuration("reconnect_grace", c.ReconnectGrace))

	return el.Err()
}

func (c *WorldConfig) settings(powerCap int, powerLifetime time.Duration) world.Settings {
	return world.Settings{
		Width:             c.Width,
		Height:            c.Height,
		VisibilityRadius:  c.VisibilityRadius,
		InteractionRadius: c.InteractionRadius,
		PowerCap:          powerCap,
		PowerLifetime:     powerLifetime,
		InactiveAfter:     parseDuration(c.InactiveAfter, 5*time.Minute),
		DeleteAfter:       parseDuration(c.DeleteAfter, time.Hour),
		ReconnectGrace:    parseDuration(c.ReconnectGrace, 30*time.Second),
	}
}

type RateLimitConfig struct {
	Window      string `json:"window"`
	MovementMax int    `json:"movement_max"`
	ActionMax   int    `json:"action_max"`
}

func (c *RateLimitConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(validateDuration("window", c.Window))
	if c.MovementMax < 0 || c.ActionMax < 0 {
		el.Add(fmt.Errorf("rate limit maximums cannot be negative"))
	}

	return el.Err()
}

func (c *RateLimitConfig) buildLimiter() *ratelimit.Limiter {
	var opts []ratelimit.Option
	if c.Window != "" {
		opts = append(opts, ratelimit.WithWindow(parseDuration(c.Window, ratelimit.DefaultWindow)))
	}
	if c.MovementMax > 0 {
		opts = append(opts, ratelimit.WithMax(ratelimit.Movement, c.MovementMax))
	}
	if c.ActionMax > 0 {
		opts = append(opts, ratelimit.WithMax(ratelimit.Action, c.ActionMax))
	}
	return ratelimit.NewLimiter(opts...)
}

type PowersConfig struct {
	Cap        int    `json:"cap"`
	BatchLimit int    `json:"batch_limit"`
	Lifetime   string `json:"lifetime"`
}

func (c *PowersConfig) validate() error {
	el := errors.NewErrorList()

	if c.Cap <= 0 {
		el.Add(fmt.Errorf("power cap must be positive"))
	}
	el.Add(validateDuration("lifetime", c.Lifetime))

	return el.Err()
}

func (c *PowersConfig) managerConfig() powers.Config {
	return powers.Config{
		Cap:        c.Cap,
		BatchLimit: c.BatchLimit,
		Lifetime:   c.lifetime(),
	}
}

func (c *PowersConfig) lifetime() time.Duration {
	return parseDuration(c.Lifetime, 10*time.Minute)
}

type ExperienceConfig struct {
	StartDelay  string `json:"start_delay"`
	RemoveGrace string `json:"remove_grace"`
}

func (c *ExperienceConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(validateDuration("start_delay", c.StartDelay))
	el.Add(validateDuration("remove_grace", c.RemoveGrace))
	return el.Err()
}

func (c *ExperienceConfig) managerConfig() experience.Config {
	return experience.Config{
		StartDelay:  parseDuration(c.StartDelay, 3*time.Second),
		RemoveGrace: parseDuration(c.RemoveGrace, 30*time.Second),
	}
}

type TimingConfig struct {
	BroadcastThrottle string  `json:"broadcast_throttle"`
	SpawnInterval     string  `json:"spawn_interval"`
	SweepInterval     string  `json:"sweep_interval"`
	TemplateSync      string  `json:"template_sync"`
	MaxMoveStep       float64 `json:"max_move_step"`
}

func (c *TimingConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(validateDuration("broadcast_throttle", c.BroadcastThrottle))
	el.Add(validateDuration("spawn_interval", c.SpawnInterval))
	el.Add(validateDuration("sweep_interval", c.SweepInterval))
	el.Add(validateDuration("template_sync", c.TemplateSync))
	if c.MaxMoveStep < 0 {
		el.Add(fmt.Errorf("max_move_step cannot be negative"))
	}

	return el.Err()
}

func (c *TimingConfig) roomConfig() room.Config {
	return room.Config{
		BroadcastThrottle: parseDuration(c.BroadcastThrottle, 0),
		SpawnInterval:     parseDuration(c.SpawnInterval, 0),
		SweepInterval:     parseDuration(c.SweepInterval, 0),
		TemplateSync:      parseDuration(c.TemplateSync, 0),
		MaxMoveStep:       c.MaxMoveStep,
	}
}
