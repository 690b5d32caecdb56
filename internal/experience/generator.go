package experience

import (
	"log/slog"
	"math/rand"

	"github.com/questline/go-geoquest/internal/storage"
	"github.com/questline/go-geoquest/internal/world"
)

// Generator seeds the room's template set from the asset store. It runs
// on its own long-period schedule so content dropped into the store
// appears without a room restart. Templates are never mutated once
// registered.
type Generator struct {
	state *world.State
	store storage.Storer[*world.ExperienceTemplate]
	rng   *rand.Rand
}

// NewGenerator wires the template store to a room's state.
func NewGenerator(state *world.State, store storage.Storer[*world.ExperienceTemplate], rng *rand.Rand) *Generator {
	return &Generator{state: state, store: store, rng: rng}
}

// Sync registers any store templates the room has not seen yet,
// resolving anywhere-placement to a concrete anchor point. Returns the
// number added.
func (g *Generator) Sync() int {
	added := 0
	for id, tpl := range g.store.GetAll() {
		if g.state.Template(id) != nil {
			continue
		}

		resolved := *tpl
		resolved.ID = id
		if resolved.Placement.Mode == "" || resolved.Placement.Mode == world.PlaceAnywhere {
			resolved.Placement = world.Placement{
				Mode:   world.PlacePoint,
				Center: world.RandomInBounds(g.rng, g.state.Settings.Width, g.state.Settings.Height),
				Radius: g.state.Settings.VisibilityRadius,
			}
		}

		g.state.AddTemplate(&resolved)
		added++
		slog.Info("experience template registered", "template", id, "name", resolved.Name)
	}
	return added
}
