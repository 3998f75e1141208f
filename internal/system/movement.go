package system

import (
	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/component"
	"github.com/ashfall/engine/internal/core/ecs"
	coresys "github.com/ashfall/engine/internal/core/system"
	"github.com/ashfall/engine/internal/scripting"
)

// MovementSystem adds Velocity to Position on every physics tick.
// Signature: Position, Velocity.
type MovementSystem struct {
	coresys.BaseSystem
}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{}
}

func (s *MovementSystem) OnPhysicsFrame(ctx *coresys.Context, e ecs.Entity) {
	store := ctx.Scene.Store()
	vel := mustGet[component.Velocity](ctx, store, e)
	pos := mustGet[component.Position](ctx, store, e)

	v, err := vel.Value()
	if err != nil {
		ctx.Logger.Panic("read velocity", zap.Uint32("entity", uint32(e)), zap.Error(err))
	}
	if err := pos.Borrow(func(p *component.Position) {
		p.X += v.DX
		p.Y += v.DY
	}); err != nil {
		ctx.Logger.Panic("move entity", zap.Uint32("entity", uint32(e)), zap.Error(err))
	}
}

// ScriptedMovementSystem moves entities through the Lua motion_step rule
// and marks the ones the script reports as out of play.
// Signature: Position, Velocity.
type ScriptedMovementSystem struct {
	coresys.BaseSystem
	lua   *scripting.Engine
	bound int
}

func NewScriptedMovementSystem(lua *scripting.Engine, bound int) *ScriptedMovementSystem {
	return &ScriptedMovementSystem{lua: lua, bound: bound}
}

func (s *ScriptedMovementSystem) OnPhysicsFrame(ctx *coresys.Context, e ecs.Entity) {
	store := ctx.Scene.Store()
	vel := mustGet[component.Velocity](ctx, store, e)
	pos := mustGet[component.Position](ctx, store, e)

	v, err := vel.Value()
	if err != nil {
		ctx.Logger.Panic("read velocity", zap.Uint32("entity", uint32(e)), zap.Error(err))
	}
	var destroy bool
	if err := pos.Borrow(func(p *component.Position) {
		r := s.lua.MotionStep(scripting.MotionContext{
			X: p.X, Y: p.Y,
			DX: v.DX, DY: v.DY,
			Bound: s.bound,
		})
		p.X, p.Y = r.X, r.Y
		destroy = r.Destroy
	}); err != nil {
		ctx.Logger.Panic("move entity", zap.Uint32("entity", uint32(e)), zap.Error(err))
	}
	if destroy {
		markForDestruction(ctx, e)
	}
}

// mustGet fetches a component the system's signature guarantees. Failure
// means the entity vanished between matching and running: a logic defect.
func mustGet[T any](ctx *coresys.Context, store *ecs.Store, e ecs.Entity) ecs.View[T] {
	v, err := ecs.GetComponent[T](store, e)
	if err != nil {
		ctx.Logger.Panic("component guaranteed by signature is missing",
			zap.Uint32("entity", uint32(e)),
			zap.Stringer("component", ecs.KeyOf[T]()),
			zap.Error(err),
		)
	}
	return v
}

func markForDestruction(ctx *coresys.Context, e ecs.Entity) {
	if err := ctx.Scene.DestroyEntity(e); err != nil {
		ctx.Logger.Panic("destroy entity", zap.Uint32("entity", uint32(e)), zap.Error(err))
	}
}
