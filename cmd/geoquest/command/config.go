package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string        `json:"tick_interval"`
	Nats         NatsConfig    `json:"nats"`
	Gateway      GatewayConfig `json:"gateway"`
	Storage      StorageConfig `json:"storage"`
	Room         RoomConfig    `json:"room"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < 100*time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
		}
	}

	el.Add(c.Nats.validate())
	el.Add(c.Gateway.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Room.validate())

	return el.Err()
}

type GatewayConfig struct {
	Port uint16 `json:"port"`
}

func (c *GatewayConfig) validate() error {
	el := errors.NewErrorList()

	if c.Port == 0 {
		el.Add(fmt.Errorf("gateway port must be set to a positive integer"))
	}

	return el.Err()
}
