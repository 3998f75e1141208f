package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Logging   LoggingConfig   `toml:"logging"`
	Scene     SceneConfig     `toml:"scene"`
	Scripting ScriptingConfig `toml:"scripting"`
	Profile   ProfileConfig   `toml:"profile"`
}

type EngineConfig struct {
	Workers     int `toml:"workers"`      // worker pool size per scene
	PhysicsRate int `toml:"physics_rate"` // physics ticks per second
	FrameRate   int `toml:"frame_rate"`   // frame cap, 0 = uncapped
	MaxFrames   int `toml:"max_frames"`   // stop after N frames, 0 = run until signalled
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type SceneConfig struct {
	File string `toml:"file"` // YAML scene definition
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem", "block", "mutex"
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML over the defaults. name is only used in errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers)
	}
	if c.Engine.PhysicsRate <= 0 {
		return fmt.Errorf("engine.physics_rate must be positive, got %d", c.Engine.PhysicsRate)
	}
	if c.Engine.FrameRate < 0 || c.Engine.MaxFrames < 0 {
		return fmt.Errorf("engine.frame_rate and engine.max_frames must not be negative")
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "block", "mutex":
	default:
		return fmt.Errorf("unknown profile.mode %q", c.Profile.Mode)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:     4,
			PhysicsRate: 60,
			FrameRate:   0,
			MaxFrames:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scene: SceneConfig{
			File: "data/scenes/demo.yaml",
		},
		Scripting: ScriptingConfig{
			Enabled: false,
			Dir:     "scripts",
		},
		Profile: ProfileConfig{
			Mode: "",
			Path: ".",
		},
	}
}
