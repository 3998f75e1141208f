package ecs

import "errors"

// Error kinds returned by the entity, component and scene operations.
// Callers match them with errors.Is; operations wrap them with context.
var (
	ErrEntityMaxReached          = errors.New("max entity count reached")
	ErrEntityDoesNotExist        = errors.New("entity doesn't exist in the scene")
	ErrEntityDoesNotOwnComponent = errors.New("entity doesn't have requested component")
	ErrComponentNotRegistered    = errors.New("unregistered component used")
	ErrComponentTypeMismatch     = errors.New("component array type mismatch")
	ErrStaleComponent            = errors.New("component view is stale")
	ErrSceneMaxReached           = errors.New("max scene count reached")
	ErrSceneDoesNotExist         = errors.New("scene doesn't exist")
	ErrNoCurrentScene            = errors.New("there is no current scene")
)
