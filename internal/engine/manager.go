package engine

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/core/ecs"
	"github.com/ashfall/engine/internal/core/event"
	"github.com/ashfall/engine/internal/core/scene"
	"github.com/ashfall/engine/internal/core/system"
)

// Manager owns every scene of an engine and tracks which one is current.
// Changing the current scene is deferred until the next Swap.
type Manager struct {
	mu      sync.Mutex
	nextID  uint32
	limit   uint32
	scenes  map[ecs.SceneID]*scene.State
	current *ecs.SceneID
	next    *ecs.SceneID

	workers int
	bus     *event.Bus
	log     *zap.Logger
}

func NewManager(workers int, bus *event.Bus, log *zap.Logger) *Manager {
	return &Manager{
		limit:   math.MaxUint32,
		scenes:  make(map[ecs.SceneID]*scene.State, 4),
		workers: workers,
		bus:     bus,
		log:     log,
	}
}

// Create allocates a new empty scene.
func (m *Manager) Create() (ecs.SceneID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nextID == m.limit {
		return 0, ecs.ErrSceneMaxReached
	}
	id := ecs.SceneID(m.nextID)
	m.nextID++
	m.scenes[id] = scene.New(id, scene.Options{
		Workers: m.workers,
		Logger:  m.log,
		Bus:     m.bus,
	})
	m.log.Debug("scene created", zap.Uint32("scene", uint32(id)))
	return id, nil
}

// Get returns the scene with the given id.
func (m *Manager) Get(id ecs.SceneID) (*scene.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *Manager) getLocked(id ecs.SceneID) (*scene.State, error) {
	s, ok := m.scenes[id]
	if !ok {
		return nil, fmt.Errorf("scene %d: %w", id, ecs.ErrSceneDoesNotExist)
	}
	return s, nil
}

// Current returns the scene made current by the last Swap.
func (m *Manager) Current() (*scene.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ecs.ErrNoCurrentScene
	}
	return m.getLocked(*m.current)
}

// SetCurrent schedules id to become current at the next Swap.
func (m *Manager) SetCurrent(id ecs.SceneID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(id); err != nil {
		return err
	}
	m.next = &id
	return nil
}

// Swap applies a pending SetCurrent: the outgoing scene runs its exit pass,
// then the incoming one its entry pass. It reports whether a swap happened.
func (m *Manager) Swap(engine system.Engine) bool {
	m.mu.Lock()
	if m.next == nil {
		m.mu.Unlock()
		return false
	}
	var outgoing *scene.State
	if m.current != nil {
		outgoing = m.scenes[*m.current]
	}
	incoming := m.scenes[*m.next]
	m.current, m.next = m.next, nil
	m.mu.Unlock()

	if outgoing != nil {
		outgoing.OnExit(engine)
	}
	incoming.OnEntry(engine)
	m.log.Info("scene swapped", zap.Uint32("scene", uint32(incoming.ID())))
	return true
}

// Close tears down every scene.
func (m *Manager) Close() {
	m.mu.Lock()
	scenes := make([]*scene.State, 0, len(m.scenes))
	for _, s := range m.scenes {
		scenes = append(scenes, s)
	}
	m.mu.Unlock()

	for _, s := range scenes {
		s.Close()
	}
}
