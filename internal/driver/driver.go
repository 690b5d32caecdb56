package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second
)

// Manager is anything the driver advances each tick.
type Manager interface {
	Tick(context.Context) error
}

// WorldDriver runs the fixed-period simulation loop over the rooms it
// was given. A failing tick in one manager is logged and must not stall
// the others or subsequent ticks.
type WorldDriver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewWorldDriver(managers []Manager, opts ...WorldDriverOpt) *WorldDriver {
	d := &WorldDriver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *WorldDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

func (d *WorldDriver) Tick(ctx context.Context) {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "manager tick", "error", err)
		}
	}
}
