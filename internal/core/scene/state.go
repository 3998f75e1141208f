package scene

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/core/ecs"
	"github.com/ashfall/engine/internal/core/event"
	"github.com/ashfall/engine/internal/core/system"
	"github.com/ashfall/engine/internal/core/worker"
)

// Options configures a scene.
type Options struct {
	// Workers is the size of the scene's worker pool. Defaults to 4.
	Workers int
	Logger  *zap.Logger
	// Bus receives scene events. Optional.
	Bus *event.Bus
}

// State is one scene: its entities, component store and systems. Entity
// destruction is deferred: DestroyEntity only marks, Cull removes.
type State struct {
	id       ecs.SceneID
	entities *ecs.EntityPool
	store    *ecs.Store
	systems  *system.Scheduler
	pool     *worker.Pool
	bus      *event.Bus
	log      *zap.Logger

	killMu  sync.Mutex
	kill    []ecs.Entity
	killSet map[ecs.Entity]struct{}

	closeOnce sync.Once
}

func New(id ecs.SceneID, opts Options) *State {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger.With(zap.Uint32("scene", uint32(id)))
	pool := worker.New(opts.Workers, log)

	return &State{
		id:       id,
		entities: ecs.NewEntityPool(),
		store:    ecs.NewStore(),
		systems:  system.NewScheduler(pool, log),
		pool:     pool,
		bus:      opts.Bus,
		log:      log,
		killSet:  make(map[ecs.Entity]struct{}, 64),
	}
}

func (s *State) ID() ecs.SceneID                { return s.id }
func (s *State) Store() *ecs.Store              { return s.store }
func (s *State) Scheduler() *system.Scheduler   { return s.systems }
func (s *State) LivingEntities() []ecs.Entity   { return s.entities.Living() }
func (s *State) EntityExists(e ecs.Entity) bool { return s.entities.Exists(e) }

// CreateEntity issues a new entity handle, unique within this scene.
func (s *State) CreateEntity() (ecs.Entity, error) {
	e, err := s.entities.Create()
	if err != nil {
		return 0, fmt.Errorf("scene %d: %w", s.id, err)
	}
	return e, nil
}

// DestroyEntity marks e for removal by the next Cull. Marking twice is the
// same as marking once.
func (s *State) DestroyEntity(e ecs.Entity) error {
	if !s.entities.Exists(e) {
		return fmt.Errorf("scene %d, entity %d: %w", s.id, e, ecs.ErrEntityDoesNotExist)
	}
	s.killMu.Lock()
	defer s.killMu.Unlock()
	if _, marked := s.killSet[e]; !marked {
		s.killSet[e] = struct{}{}
		s.kill = append(s.kill, e)
	}
	return nil
}

// Cull removes every marked entity from all component arrays and frees its
// id, in marking order. It returns the number of entities removed.
func (s *State) Cull() int {
	s.killMu.Lock()
	marked := s.kill
	s.kill = nil
	clear(s.killSet)
	s.killMu.Unlock()

	for _, e := range marked {
		s.store.RemoveComponents(e)
		s.entities.Destroy(e)
		if s.bus != nil {
			event.Emit(s.bus, event.EntityCulled{Scene: s.id, Entity: e})
		}
	}
	if len(marked) > 0 {
		s.log.Debug("entities culled", zap.Int("count", len(marked)))
	}
	return len(marked)
}

// HasComponents reports whether e owns every component in keys.
func (s *State) HasComponents(e ecs.Entity, keys ...ecs.ComponentKey) (bool, error) {
	return s.store.HasComponents(e, keys...)
}

// RegisterSystem adds sys with its required components. Systems cannot be
// unregistered; a second system of the same type is ignored.
func (s *State) RegisterSystem(signature []ecs.ComponentKey, sys system.System) bool {
	return s.systems.Register(signature, sys)
}

func (s *State) context(engine system.Engine) *system.Context {
	return &system.Context{Engine: engine, Scene: s, Logger: s.log}
}

// OnEntry runs every system's entry callback.
func (s *State) OnEntry(engine system.Engine) {
	s.systems.OnEntry(s.context(engine))
	if s.bus != nil {
		event.Emit(s.bus, event.SceneEntered{Scene: s.id})
	}
}

// OnExit runs every system's exit callback.
func (s *State) OnExit(engine system.Engine) {
	s.systems.OnExit(s.context(engine))
	if s.bus != nil {
		event.Emit(s.bus, event.SceneExited{Scene: s.id})
	}
}

// OnFrame runs the physics pass when physics is set, then the frame pass.
func (s *State) OnFrame(engine system.Engine, physics bool, dt time.Duration) {
	s.systems.OnFrame(s.context(engine), physics, dt)
}

// Close drops every component and stops the worker pool.
func (s *State) Close() {
	s.closeOnce.Do(func() {
		s.store.Clear()
		s.pool.Close()
	})
}

// RegisterComponent registers T for use in this scene.
func RegisterComponent[T any](s *State) ecs.ComponentKey {
	return ecs.RegisterComponent[T](s.store)
}

// AddComponent attaches v to a live entity, replacing any previous T.
func AddComponent[T any](s *State, e ecs.Entity, v T) error {
	if !s.entities.Exists(e) {
		return fmt.Errorf("scene %d, entity %d: %w", s.id, e, ecs.ErrEntityDoesNotExist)
	}
	return ecs.AddComponent(s.store, e, v)
}

// RemoveComponent detaches T from a live entity.
func RemoveComponent[T any](s *State, e ecs.Entity) error {
	if !s.entities.Exists(e) {
		return fmt.Errorf("scene %d, entity %d: %w", s.id, e, ecs.ErrEntityDoesNotExist)
	}
	return ecs.RemoveComponent[T](s.store, e)
}

// GetComponent checks out a view of e's T.
func GetComponent[T any](s *State, e ecs.Entity) (ecs.View[T], error) {
	return ecs.GetComponent[T](s.store, e)
}
