package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vec2 is a 2D integer coordinate as written in scene files.
type Vec2 struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
}

// SpawnGroup describes Count identical entities.
type SpawnGroup struct {
	Count      int   `yaml:"count"`
	Position   *Vec2 `yaml:"position"`
	Velocity   *Vec2 `yaml:"velocity"`
	FPSTracker bool  `yaml:"fps_tracker"`
}

// SceneDef is the on-disk description of a scene.
type SceneDef struct {
	Name    string       `yaml:"name"`
	Bound   int32        `yaml:"bound"`   // entities past this coordinate are destroyed, 0 = never
	Systems []string     `yaml:"systems"` // names understood by system.RegisterSystems
	Spawns  []SpawnGroup `yaml:"spawns"`
}

// EntityCount returns the total number of entities the scene spawns.
func (d *SceneDef) EntityCount() int {
	n := 0
	for _, g := range d.Spawns {
		n += g.Count
	}
	return n
}

// LoadSceneDef loads a scene definition from a YAML file.
func LoadSceneDef(path string) (*SceneDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	return ParseSceneDef(raw)
}

// ParseSceneDef decodes and validates a scene definition.
func ParseSceneDef(raw []byte) (*SceneDef, error) {
	var def SceneDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("parse scene: missing name")
	}
	for i, g := range def.Spawns {
		if g.Count <= 0 {
			return nil, fmt.Errorf("scene %s: spawn %d: count must be positive", def.Name, i)
		}
		if g.Velocity != nil && g.Position == nil {
			return nil, fmt.Errorf("scene %s: spawn %d: velocity without position", def.Name, i)
		}
	}
	return &def, nil
}
