package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashfall/engine/internal/config"
	"github.com/ashfall/engine/internal/core/ecs"
	"github.com/ashfall/engine/internal/core/event"
	"github.com/ashfall/engine/internal/core/system"
)

var _ system.Engine = (*Engine)(nil)

// Engine drives the current scene once per frame: scene swap, physics and
// frame passes, cull, event dispatch.
type Engine struct {
	cfg     config.EngineConfig
	scenes  *Manager
	bus     *event.Bus
	physics *Timer
	log     *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	frames   atomic.Uint64
}

func New(cfg config.EngineConfig, log *zap.Logger) *Engine {
	log = log.With(zap.String("run", uuid.New().String()))
	bus := event.NewBus()
	rate := cfg.PhysicsRate
	if rate <= 0 {
		rate = 60
	}
	return &Engine{
		cfg:     cfg,
		scenes:  NewManager(cfg.Workers, bus, log),
		bus:     bus,
		physics: NewTimer(time.Second / time.Duration(rate)),
		log:     log,
		stop:    make(chan struct{}),
	}
}

func (e *Engine) Logger() *zap.Logger { return e.log }
func (e *Engine) Scenes() *Manager    { return e.scenes }
func (e *Engine) Bus() *event.Bus     { return e.bus }

// Frames returns how many frames Run has completed.
func (e *Engine) Frames() uint64 { return e.frames.Load() }

// CreateScene allocates a new scene.
func (e *Engine) CreateScene() (ecs.SceneID, error) {
	return e.scenes.Create()
}

// ChangeScene makes id current from the next frame on.
func (e *Engine) ChangeScene(id ecs.SceneID) error {
	return e.scenes.SetCurrent(id)
}

// Stop makes Run return after the frame in progress.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Run makes start current and loops until ctx is done, Stop is called or
// the configured frame limit is reached. On return the current scene has
// run its exit pass and every scene is closed.
func (e *Engine) Run(ctx context.Context, start ecs.SceneID) error {
	if err := e.scenes.SetCurrent(start); err != nil {
		return err
	}
	defer e.scenes.Close()

	var limiter <-chan time.Time
	if e.cfg.FrameRate > 0 {
		t := time.NewTicker(time.Second / time.Duration(e.cfg.FrameRate))
		defer t.Stop()
		limiter = t.C
	}

	e.log.Info("engine loop started",
		zap.Int("workers", e.cfg.Workers),
		zap.Int("physics_rate", e.cfg.PhysicsRate),
		zap.Int("frame_rate", e.cfg.FrameRate),
	)

	e.physics.Reset()
	last := time.Now()
	for !e.done(ctx) {
		now := time.Now()
		dt := now.Sub(last)
		last = now

		e.scenes.Swap(e)
		current, err := e.scenes.Current()
		if err != nil {
			return err
		}

		e.bus.SwapBuffers()
		e.bus.DispatchAll()

		current.OnFrame(e, e.physics.Tick(), dt)
		current.Cull()

		n := e.frames.Add(1)
		if e.cfg.MaxFrames > 0 && n >= uint64(e.cfg.MaxFrames) {
			break
		}
		if limiter != nil {
			select {
			case <-limiter:
			case <-ctx.Done():
			case <-e.stop:
			}
		}
	}

	if current, err := e.scenes.Current(); err == nil {
		current.OnExit(e)
		current.Cull()
	}
	e.bus.SwapBuffers()
	e.bus.DispatchAll()

	e.log.Info("engine loop stopped", zap.Uint64("frames", e.frames.Load()))
	return nil
}

func (e *Engine) done(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-e.stop:
		return true
	default:
		return false
	}
}
