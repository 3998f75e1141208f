package system

import (
	"time"

	"github.com/ashfall/engine/internal/core/ecs"
	coresys "github.com/ashfall/engine/internal/core/system"
	"go.uber.org/zap"
)

// FPSSystem reports frame and physics rates once per report interval.
// Signature: FPSTracker.
type FPSSystem struct {
	coresys.BaseSystem
	interval time.Duration

	elapsed       time.Duration
	frames        int
	physicsFrames int

	// last report, exposed for tests
	lastFPS, lastPhysicsFPS float64
}

func NewFPSSystem(interval time.Duration) *FPSSystem {
	if interval <= 0 {
		interval = time.Second
	}
	return &FPSSystem{interval: interval}
}

func (s *FPSSystem) OnPhysicsFrame(*coresys.Context, ecs.Entity) {
	s.physicsFrames++
}

func (s *FPSSystem) OnFrame(ctx *coresys.Context, _ ecs.Entity, dt time.Duration) {
	s.frames++
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	secs := s.elapsed.Seconds()
	s.lastFPS = float64(s.frames) / secs
	s.lastPhysicsFPS = float64(s.physicsFrames) / secs
	ctx.Logger.Info("frame rate",
		zap.Float64("fps", s.lastFPS),
		zap.Float64("physics_fps", s.lastPhysicsFPS),
	)
	s.elapsed, s.frames, s.physicsFrames = 0, 0, 0
}
