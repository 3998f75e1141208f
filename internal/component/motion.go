package component

// Position is an entity's location in world units.
type Position struct {
	X, Y int
}

// Velocity is applied to Position once per physics tick.
type Velocity struct {
	DX, DY int
}

// FPSTracker marks the entity the FPS system reports on.
type FPSTracker struct{}
