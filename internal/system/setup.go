package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/component"
	"github.com/ashfall/engine/internal/core/ecs"
	"github.com/ashfall/engine/internal/core/scene"
	"github.com/ashfall/engine/internal/data"
	"github.com/ashfall/engine/internal/scripting"
)

// Keys holds the component keys of the demo components in one scene.
type Keys struct {
	Position   ecs.ComponentKey
	Velocity   ecs.ComponentKey
	FPSTracker ecs.ComponentKey
}

// RegisterComponents registers every demo component with st.
func RegisterComponents(st *scene.State) Keys {
	return Keys{
		Position:   scene.RegisterComponent[component.Position](st),
		Velocity:   scene.RegisterComponent[component.Velocity](st),
		FPSTracker: scene.RegisterComponent[component.FPSTracker](st),
	}
}

// Populate spawns the entities described by def.
func Populate(st *scene.State, def *data.SceneDef) error {
	for i, g := range def.Spawns {
		for n := 0; n < g.Count; n++ {
			e, err := st.CreateEntity()
			if err != nil {
				return fmt.Errorf("spawn group %d: %w", i, err)
			}
			if g.Position != nil {
				p := component.Position{X: int(g.Position.X), Y: int(g.Position.Y)}
				if err := scene.AddComponent(st, e, p); err != nil {
					return fmt.Errorf("spawn group %d: %w", i, err)
				}
			}
			if g.Velocity != nil {
				v := component.Velocity{DX: int(g.Velocity.X), DY: int(g.Velocity.Y)}
				if err := scene.AddComponent(st, e, v); err != nil {
					return fmt.Errorf("spawn group %d: %w", i, err)
				}
			}
			if g.FPSTracker {
				if err := scene.AddComponent(st, e, component.FPSTracker{}); err != nil {
					return fmt.Errorf("spawn group %d: %w", i, err)
				}
			}
		}
	}
	return nil
}

// RegisterSystems registers the systems named by def. lua is required only
// for "scripted_movement".
func RegisterSystems(st *scene.State, keys Keys, def *data.SceneDef, lua *scripting.Engine, log *zap.Logger) error {
	bound := int(def.Bound)
	for _, name := range def.Systems {
		switch name {
		case "movement":
			st.RegisterSystem([]ecs.ComponentKey{keys.Position, keys.Velocity}, NewMovementSystem())
		case "scripted_movement":
			if lua == nil {
				return fmt.Errorf("system %s: scripting is disabled", name)
			}
			st.RegisterSystem([]ecs.ComponentKey{keys.Position, keys.Velocity}, NewScriptedMovementSystem(lua, bound))
		case "bound":
			if bound <= 0 {
				return fmt.Errorf("system %s: scene %s has no bound", name, def.Name)
			}
			st.RegisterSystem([]ecs.ComponentKey{keys.Position}, NewBoundSystem(bound))
		case "fps":
			st.RegisterSystem([]ecs.ComponentKey{keys.FPSTracker}, NewFPSSystem(time.Second))
		default:
			return fmt.Errorf("unknown system %q", name)
		}
		log.Debug("system enabled", zap.String("system", name), zap.String("scene", def.Name))
	}
	return nil
}

// Positions snapshots the position of every living entity that moves.
func Positions(st *scene.State) (map[ecs.Entity]component.Position, error) {
	out := make(map[ecs.Entity]component.Position)
	err := ecs.Each2(st.Store(), st.LivingEntities(),
		func(e ecs.Entity, pos ecs.View[component.Position], _ ecs.View[component.Velocity]) {
			if p, err := pos.Value(); err == nil {
				out[e] = p
			}
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}
