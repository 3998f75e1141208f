package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ashfall/engine/internal/config"
	"github.com/ashfall/engine/internal/core/event"
	"github.com/ashfall/engine/internal/data"
	"github.com/ashfall/engine/internal/engine"
	"github.com/ashfall/engine/internal/scripting"
	"github.com/ashfall/engine/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("ASHFALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop()
	}

	// 3. Load the scene definition
	def, err := data.LoadSceneDef(cfg.Scene.File)
	if err != nil {
		return fmt.Errorf("scene definition: %w", err)
	}

	// 4. Optional Lua motion rules
	var lua *scripting.Engine
	if cfg.Scripting.Enabled {
		lua, err = scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer lua.Close()
	}

	// 5. Build the engine and the start scene
	eng := engine.New(cfg.Engine, log)
	id, err := eng.CreateScene()
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	st, err := eng.Scenes().Get(id)
	if err != nil {
		return fmt.Errorf("get scene: %w", err)
	}
	keys := system.RegisterComponents(st)
	if err := system.RegisterSystems(st, keys, def, lua, log); err != nil {
		return fmt.Errorf("register systems: %w", err)
	}
	if err := system.Populate(st, def); err != nil {
		return fmt.Errorf("populate scene: %w", err)
	}

	event.Subscribe(eng.Bus(), func(ev event.EntityCulled) {
		log.Info("entity culled",
			zap.Uint32("scene", uint32(ev.Scene)),
			zap.Uint32("entity", uint32(ev.Entity)),
		)
	})

	log.Info("scene ready",
		zap.String("scene", def.Name),
		zap.Int("entities", def.EntityCount()),
		zap.Int("batches", len(st.Scheduler().Batches())),
	)

	// 6. Run until signalled or the frame limit is hit
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := eng.Run(ctx, id); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

func startProfile(cfg config.ProfileConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "block":
		mode = profile.BlockProfile
	case "mutex":
		mode = profile.MutexProfile
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook)
	return p.Stop
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
