package system

import (
	"reflect"
	"sync"
	"time"

	"github.com/TheBitDrifter/mask"
	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/core/ecs"
	"github.com/ashfall/engine/internal/core/worker"
)

// Phase selects which callback a pass invokes.
type Phase int

const (
	PhaseEntry   Phase = iota // scene became current
	PhaseExit                 // scene is being left
	PhasePhysics              // fixed-rate tick, runs before PhaseFrame
	PhaseFrame                // every frame
)

func (p Phase) String() string {
	switch p {
	case PhaseEntry:
		return "entry"
	case PhaseExit:
		return "exit"
	case PhasePhysics:
		return "physics"
	case PhaseFrame:
		return "frame"
	}
	return "unknown"
}

type registration struct {
	name      string
	system    System
	signature []ecs.ComponentKey
	mask      mask.Mask
	log       *zap.Logger
}

// Scheduler owns the registered systems and partitions them into batches
// whose members declare pairwise-disjoint signatures. Batches run in
// registration order with a full barrier between them; the members of one
// batch run concurrently on the worker pool.
type Scheduler struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*registration
	batches [][]*registration

	pool *worker.Pool
	log  *zap.Logger
}

func NewScheduler(pool *worker.Pool, log *zap.Logger) *Scheduler {
	return &Scheduler{
		byType:  make(map[reflect.Type]*registration, 16),
		batches: make([][]*registration, 0, 4),
		pool:    pool,
		log:     log,
	}
}

// Register stores sys under signature and places it in the first batch it
// does not conflict with. Only one system per concrete type is kept; later
// registrations of the same type are ignored and report false.
func (s *Scheduler) Register(signature []ecs.ComponentKey, sys System) bool {
	t := reflect.TypeOf(sys)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byType[t]; dup {
		s.log.Debug("system already registered", zap.Stringer("system", t))
		return false
	}

	reg := &registration{
		name:      t.String(),
		system:    sys,
		signature: append([]ecs.ComponentKey(nil), signature...),
	}
	for _, k := range signature {
		reg.mask.Mark(uint32(k))
	}
	reg.log = s.log.With(zap.String("system", reg.name))
	s.byType[t] = reg

	placed := -1
	for i, batch := range s.batches {
		if fits(batch, reg) {
			s.batches[i] = append(batch, reg)
			placed = i
			break
		}
	}
	if placed < 0 {
		s.batches = append(s.batches, []*registration{reg})
		placed = len(s.batches) - 1
	}

	s.log.Debug("system registered",
		zap.String("system", reg.name),
		zap.Int("batch", placed),
		zap.Stringers("signature", reg.signature),
	)
	return true
}

// fits reports whether candidate shares no component with any member.
func fits(batch []*registration, candidate *registration) bool {
	for _, member := range batch {
		if member.mask.ContainsAny(candidate.mask) {
			return false
		}
	}
	return true
}

// Batches returns the current partition, batch by batch.
func (s *Scheduler) Batches() [][]System {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]System, len(s.batches))
	for i, batch := range s.batches {
		out[i] = make([]System, len(batch))
		for j, reg := range batch {
			out[i][j] = reg.system
		}
	}
	return out
}

// Len returns the number of registered systems.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byType)
}

// OnEntry runs every system's OnEntry over its matched entities.
func (s *Scheduler) OnEntry(ctx *Context) {
	s.runPass(ctx, PhaseEntry, 0)
}

// OnExit runs every system's OnExit over its matched entities.
func (s *Scheduler) OnExit(ctx *Context) {
	s.runPass(ctx, PhaseExit, 0)
}

// OnFrame runs a full physics pass first when physics is set, then the
// frame pass.
func (s *Scheduler) OnFrame(ctx *Context, physics bool, dt time.Duration) {
	if physics {
		s.runPass(ctx, PhasePhysics, dt)
	}
	s.runPass(ctx, PhaseFrame, dt)
}

func (s *Scheduler) runPass(ctx *Context, phase Phase, dt time.Duration) {
	s.mu.RLock()
	batches := make([][]*registration, len(s.batches))
	for i, batch := range s.batches {
		batches[i] = append([]*registration(nil), batch...)
	}
	s.mu.RUnlock()

	for i, batch := range batches {
		latch := s.pool.NewBatch()
		for _, reg := range batch {
			entities := s.match(ctx.Scene, reg)
			job := s.job(ctx, reg, phase, dt, entities)
			if err := latch.Execute(job); err != nil {
				s.log.Panic("submit system job",
					zap.String("system", reg.name),
					zap.Stringer("phase", phase),
					zap.Error(err),
				)
			}
		}
		latch.Wait()
		s.log.Debug("batch done",
			zap.Stringer("phase", phase),
			zap.Int("batch", i),
			zap.Int("systems", len(batch)),
		)
	}
}

// match recomputes the living entities satisfying reg's signature. A failure
// here means a signature names a component the scene never registered,
// which is a programming error.
func (s *Scheduler) match(scene Scene, reg *registration) []ecs.Entity {
	matched, err := ecs.Match(scene.Store(), scene.LivingEntities(), reg.signature...)
	if err != nil {
		s.log.Panic("match system signature",
			zap.String("system", reg.name),
			zap.Uint32("scene", uint32(scene.ID())),
			zap.Error(err),
		)
	}
	return matched
}

func (s *Scheduler) job(ctx *Context, reg *registration, phase Phase, dt time.Duration, entities []ecs.Entity) worker.Job {
	sctx := &Context{Engine: ctx.Engine, Scene: ctx.Scene, Logger: reg.log}
	sys := reg.system
	return func() {
		for _, e := range entities {
			switch phase {
			case PhaseEntry:
				sys.OnEntry(sctx, e)
			case PhaseExit:
				sys.OnExit(sctx, e)
			case PhasePhysics:
				sys.OnPhysicsFrame(sctx, e)
			case PhaseFrame:
				sys.OnFrame(sctx, e, dt)
			}
		}
	}
}
