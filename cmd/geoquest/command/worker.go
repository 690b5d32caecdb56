package command

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pixil98/go-service"
	"github.com/questline/go-geoquest/internal/driver"
	"github.com/questline/go-geoquest/internal/experience"
	"github.com/questline/go-geoquest/internal/gateway"
	"github.com/questline/go-geoquest/internal/messaging"
	"github.com/questline/go-geoquest/internal/powers"
	"github.com/questline/go-geoquest/internal/room"
	"github.com/questline/go-geoquest/internal/timers"
	"github.com/questline/go-geoquest/internal/world"
	"github.com/questline/go-geoquest/internal/zones"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Create the embedded messaging server
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Load asset stores
	zoneStore, err := cfg.Storage.buildZoneStore()
	if err != nil {
		return nil, fmt.Errorf("creating zone store: %w", err)
	}
	expStore, err := cfg.Storage.buildExperienceStore()
	if err != nil {
		return nil, fmt.Errorf("creating experience store: %w", err)
	}
	catalog, err := cfg.Storage.buildChallengeCatalog()
	if err != nil {
		return nil, fmt.Errorf("creating challenge catalog: %w", err)
	}

	// Assemble the world
	settings := cfg.Room.World.settings(cfg.Room.Powers.Cap, cfg.Room.Powers.lifetime())
	state := world.NewState(settings)
	for id, z := range zoneStore.GetAll() {
		if z.ID == "" {
			z.ID = id
		}
		state.AddZone(z)
	}

	reg := timers.NewRegistry()
	clock := timers.SystemClock{}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	rm := room.New(room.Deps{
		ID:      cfg.Room.Id,
		State:   state,
		Reg:     reg,
		Clock:   clock,
		Rand:    rng,
		Limiter: cfg.Room.RateLimit.buildLimiter(),
		Powers:  powers.NewManager(state, reg, clock, rng, cfg.Room.Powers.managerConfig(), catalog),
		Tracker: zones.NewTracker(state),
		Gen:     experience.NewGenerator(state, expStore, rng),
		Pub:     messaging.NewConnPublisher(natsServer),
		Config:  cfg.Room.Timing.roomConfig(),
	}, cfg.Room.Experiences.managerConfig())

	// Route inbound connection traffic to the room
	inbound := messaging.NewInboundWorker(natsServer, rm.HandleMessage)

	// Setup the world driver
	var driverOpts []driver.WorldDriverOpt
	if cfg.TickInterval != "" {
		d, err := time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	worldDriver := driver.NewWorldDriver([]driver.Manager{rm}, driverOpts...)

	// Websocket edge for clients
	ws := gateway.NewWebsocketGateway(cfg.Gateway.Port, natsServer)

	// Create a worker list
	return service.WorkerList{
		"nats":    natsServer,
		"inbound": inbound,
		"driver":  worldDriver,
		"gateway": ws,
	}, nil
}
