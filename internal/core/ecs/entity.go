package ecs

import (
	"math"
	"sync"
)

// Entity is an opaque handle, unique among the live entities of one scene.
// Freed ids are handed out again, so a handle is meaningless after its
// entity has been culled.
type Entity uint32

// SceneID identifies one scene inside an engine.
type SceneID uint32

// EntityPool issues and recycles entity ids. Freed ids go through a FIFO
// queue and are reissued oldest first before any new id is allocated.
//
// An id is live iff it is below nextID and not in the free set.
type EntityPool struct {
	mu       sync.RWMutex
	nextID   uint32
	limit    uint32
	freeList []Entity
	freeSet  map[Entity]struct{}
}

func NewEntityPool() *EntityPool {
	return newEntityPool(math.MaxUint32)
}

func newEntityPool(limit uint32) *EntityPool {
	return &EntityPool{
		limit:    limit,
		freeList: make([]Entity, 0, 256),
		freeSet:  make(map[Entity]struct{}, 256),
	}
}

// Create returns the oldest freed id, or the next sequential one.
func (p *EntityPool) Create() (Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) > 0 {
		e := p.freeList[0]
		p.freeList[0] = 0
		p.freeList = p.freeList[1:]
		delete(p.freeSet, e)
		return e, nil
	}
	if p.nextID == p.limit {
		return 0, ErrEntityMaxReached
	}
	e := Entity(p.nextID)
	p.nextID++
	return e, nil
}

// Destroy returns a live id to the free queue. Unknown or already freed ids
// are ignored.
func (p *EntityPool) Destroy(e Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.existsLocked(e) {
		return
	}
	p.freeList = append(p.freeList, e)
	p.freeSet[e] = struct{}{}
}

func (p *EntityPool) Exists(e Entity) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.existsLocked(e)
}

func (p *EntityPool) existsLocked(e Entity) bool {
	if uint32(e) >= p.nextID {
		return false
	}
	_, dead := p.freeSet[e]
	return !dead
}

// Living enumerates every live id in ascending order. It is recomputed on
// each call.
func (p *EntityPool) Living() []Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	living := make([]Entity, 0, int(p.nextID)-len(p.freeSet))
	for id := uint32(0); id < p.nextID; id++ {
		if _, dead := p.freeSet[Entity(id)]; dead {
			continue
		}
		living = append(living, Entity(id))
	}
	return living
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int(p.nextID) - len(p.freeSet)
}
