package event

import "github.com/ashfall/engine/internal/core/ecs"

// EntityCulled is emitted once per entity removed by a scene's cull step.
type EntityCulled struct {
	Scene  ecs.SceneID
	Entity ecs.Entity
}

// SceneEntered is emitted after a scene's entry pass.
type SceneEntered struct {
	Scene ecs.SceneID
}

// SceneExited is emitted after a scene's exit pass.
type SceneExited struct {
	Scene ecs.SceneID
}
