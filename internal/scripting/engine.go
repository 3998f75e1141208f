package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. It is not safe for concurrent use:
// give each system its own Engine. The scheduler runs one system's
// callbacks on one worker at a time, which satisfies this.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in dir.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.loadDir(dir); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// NewEngineFromSource creates a Lua engine running src.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// MotionContext is the state handed to motion_step.
type MotionContext struct {
	X, Y   int
	DX, DY int
	Bound  int
}

// MotionResult is returned by motion_step.
type MotionResult struct {
	X, Y    int
	Destroy bool
}

// HasMotion reports whether the loaded scripts define motion_step.
func (e *Engine) HasMotion() bool {
	return e.vm.GetGlobal("motion_step") != lua.LNil
}

// MotionStep calls the Lua motion_step function. When the script is missing
// or fails, the entity is moved by its velocity unchanged.
func (e *Engine) MotionStep(ctx MotionContext) MotionResult {
	fallback := MotionResult{X: ctx.X + ctx.DX, Y: ctx.Y + ctx.DY}
	fallback.Destroy = ctx.Bound > 0 && fallback.X > ctx.Bound

	fn := e.vm.GetGlobal("motion_step")
	if fn == lua.LNil {
		e.log.Error("lua function motion_step not found")
		return fallback
	}

	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("dx", lua.LNumber(ctx.DX))
	t.RawSetString("dy", lua.LNumber(ctx.DY))
	t.RawSetString("bound", lua.LNumber(ctx.Bound))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua motion_step error", zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua motion_step returned non-table")
		return fallback
	}

	return MotionResult{
		X:       int(lua.LVAsNumber(rt.RawGetString("x"))),
		Y:       int(lua.LVAsNumber(rt.RawGetString("y"))),
		Destroy: rt.RawGetString("destroy") == lua.LTrue,
	}
}
