package system

import (
	"time"

	"github.com/ashfall/engine/internal/component"
	"github.com/ashfall/engine/internal/core/ecs"
	coresys "github.com/ashfall/engine/internal/core/system"
	"go.uber.org/zap"
)

// BoundSystem marks entities whose X coordinate has passed the bound; the
// engine culls them at the end of the frame. Signature: Position.
type BoundSystem struct {
	coresys.BaseSystem
	bound int
}

func NewBoundSystem(bound int) *BoundSystem {
	return &BoundSystem{bound: bound}
}

func (s *BoundSystem) OnFrame(ctx *coresys.Context, e ecs.Entity, _ time.Duration) {
	pos := mustGet[component.Position](ctx, ctx.Scene.Store(), e)
	p, err := pos.Value()
	if err != nil {
		ctx.Logger.Panic("read position", zap.Uint32("entity", uint32(e)), zap.Error(err))
	}
	if p.X > s.bound {
		ctx.Logger.Debug("entity out of bounds", zap.Uint32("entity", uint32(e)), zap.Int("x", p.X))
		markForDestruction(ctx, e)
	}
}
