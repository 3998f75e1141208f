package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/core/ecs"
)

// System is the behavior a scene runs over every entity matching the
// signature it was registered with. Each callback is invoked once per
// matched entity, sequentially, on a single worker.
//
// Embed BaseSystem to implement only the callbacks you need.
type System interface {
	// OnEntry runs when the scene becomes current.
	OnEntry(ctx *Context, e ecs.Entity)
	// OnExit runs when the scene stops being current.
	OnExit(ctx *Context, e ecs.Entity)
	// OnFrame runs every frame with the time elapsed since the last one.
	OnFrame(ctx *Context, e ecs.Entity, dt time.Duration)
	// OnPhysicsFrame runs on fixed-rate physics ticks, before OnFrame.
	OnPhysicsFrame(ctx *Context, e ecs.Entity)
}

// BaseSystem provides no-op callbacks.
type BaseSystem struct{}

func (BaseSystem) OnEntry(*Context, ecs.Entity)                {}
func (BaseSystem) OnExit(*Context, ecs.Entity)                 {}
func (BaseSystem) OnFrame(*Context, ecs.Entity, time.Duration) {}
func (BaseSystem) OnPhysicsFrame(*Context, ecs.Entity)         {}

// Engine is the engine surface available to systems.
type Engine interface {
	Logger() *zap.Logger
	// ChangeScene requests a swap to another scene at the start of the
	// next frame.
	ChangeScene(id ecs.SceneID) error
	// Stop asks the engine loop to return after the current frame.
	Stop()
}

// Scene is the scene surface available to systems. Components are reached
// through Store with the generic ecs accessors; a system may only touch the
// components named in its signature.
type Scene interface {
	ID() ecs.SceneID
	Store() *ecs.Store
	CreateEntity() (ecs.Entity, error)
	// DestroyEntity marks e for removal at the end of the frame.
	DestroyEntity(e ecs.Entity) error
	EntityExists(e ecs.Entity) bool
	LivingEntities() []ecs.Entity
	HasComponents(e ecs.Entity, keys ...ecs.ComponentKey) (bool, error)
}

// Context is handed to every callback. It names the engine and the scene
// explicitly; nothing is resolved from shared state.
type Context struct {
	Engine Engine
	Scene  Scene
	// Logger is scoped to the running system.
	Logger *zap.Logger
}
