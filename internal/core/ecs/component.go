package ecs

import (
	"fmt"
	"sync"
)

// componentArray is the sparse per-type storage. Values live behind stable
// pointers in slots; every slot carries a generation that is bumped whenever
// its value is removed, so outstanding views can detect reuse.
type componentArray[T any] struct {
	mu    sync.RWMutex
	index map[Entity]int
	slots []*T
	gens  []uint32
	free  []int
}

func newComponentArray[T any]() *componentArray[T] {
	return &componentArray[T]{
		index: make(map[Entity]int, 256),
		slots: make([]*T, 0, 256),
		gens:  make([]uint32, 0, 256),
	}
}

// set inserts or replaces. Replacing writes in place and keeps views valid.
func (a *componentArray[T]) set(e Entity, v T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i, ok := a.index[e]; ok {
		*a.slots[i] = v
		return
	}
	val := new(T)
	*val = v
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[i] = val
		a.index[e] = i
		return
	}
	a.slots = append(a.slots, val)
	a.gens = append(a.gens, 0)
	a.index[e] = len(a.slots) - 1
}

func (a *componentArray[T]) remove(e Entity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.index[e]
	if !ok {
		return
	}
	delete(a.index, e)
	a.slots[i] = nil
	a.gens[i]++
	a.free = append(a.free, i)
}

func (a *componentArray[T]) has(e Entity) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.index[e]
	return ok
}

func (a *componentArray[T]) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for e, i := range a.index {
		a.slots[i] = nil
		a.gens[i]++
		a.free = append(a.free, i)
		delete(a.index, e)
	}
}

func (a *componentArray[T]) len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.index)
}

func (a *componentArray[T]) view(e Entity) (View[T], bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	i, ok := a.index[e]
	if !ok {
		return View[T]{}, false
	}
	return View[T]{array: a, entity: e, slot: i, gen: a.gens[i]}, true
}

// resolve re-validates a view's generation and returns the stored pointer.
func (a *componentArray[T]) resolve(slot int, gen uint32) (*T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if slot >= len(a.slots) || a.gens[slot] != gen || a.slots[slot] == nil {
		return nil, false
	}
	return a.slots[slot], true
}

// View is a checked-out handle to one stored component. It holds no lock:
// every access re-validates the slot generation, and exclusive use of the
// value is guaranteed by the scheduler placing conflicting systems in
// different batches.
type View[T any] struct {
	array  *componentArray[T]
	entity Entity
	slot   int
	gen    uint32
}

// Entity returns the owner of the viewed component.
func (v View[T]) Entity() Entity { return v.entity }

// Borrow runs fn on the live value. The pointer must not escape fn.
func (v View[T]) Borrow(fn func(*T)) error {
	p, err := v.Get()
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

// Get returns the live value. The pointer stays valid until the component
// is removed from its entity.
func (v View[T]) Get() (*T, error) {
	if v.array == nil {
		return nil, ErrStaleComponent
	}
	p, ok := v.array.resolve(v.slot, v.gen)
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", v.entity, ErrStaleComponent)
	}
	return p, nil
}

// Value returns a copy of the live value.
func (v View[T]) Value() (T, error) {
	var zero T
	if v.array == nil {
		return zero, ErrStaleComponent
	}
	v.array.mu.RLock()
	defer v.array.mu.RUnlock()
	if v.slot >= len(v.array.slots) || v.array.gens[v.slot] != v.gen || v.array.slots[v.slot] == nil {
		return zero, fmt.Errorf("entity %d: %w", v.entity, ErrStaleComponent)
	}
	return *v.array.slots[v.slot], nil
}

// column is the typed operation table registered for one component type.
// typed holds the concrete *componentArray[T] for generic access.
type column struct {
	desc   Descriptor
	typed  any
	remove func(Entity)
	has    func(Entity) bool
	clear  func()
	len    func() int
}

func newColumn[T any](desc Descriptor) *column {
	a := newComponentArray[T]()
	return &column{
		desc:   desc,
		typed:  a,
		remove: a.remove,
		has:    a.has,
		clear:  a.clear,
		len:    a.len,
	}
}

// Store maps component keys to their arrays. The map is guarded by one lock
// held only for lookup and registration; each array carries its own lock.
type Store struct {
	mu      sync.RWMutex
	columns map[ComponentKey]*column
}

func NewStore() *Store {
	return &Store{
		columns: make(map[ComponentKey]*column, 16),
	}
}

func (s *Store) column(k ComponentKey) (*column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.columns[k]
	return c, ok
}

// IsRegistered reports whether an array exists for k.
func (s *Store) IsRegistered(k ComponentKey) bool {
	_, ok := s.column(k)
	return ok
}

// Len returns how many entities own the component keyed by k.
func (s *Store) Len(k ComponentKey) (int, error) {
	c, ok := s.column(k)
	if !ok {
		return 0, fmt.Errorf("component %s: %w", k, ErrComponentNotRegistered)
	}
	return c.len(), nil
}

// RemoveComponents clears e from every registered array.
func (s *Store) RemoveComponents(e Entity) {
	s.mu.RLock()
	cols := make([]*column, 0, len(s.columns))
	for _, c := range s.columns {
		cols = append(cols, c)
	}
	s.mu.RUnlock()

	for _, c := range cols {
		c.remove(e)
	}
}

// HasComponents reports whether e is present in every named array. An
// empty key list is satisfied by any entity.
func (s *Store) HasComponents(e Entity, ks ...ComponentKey) (bool, error) {
	cols, err := s.columnsFor(ks)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if !c.has(e) {
			return false, nil
		}
	}
	return true, nil
}

// columnsFor resolves every key, failing on the first unregistered one.
func (s *Store) columnsFor(ks []ComponentKey) ([]*column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make([]*column, 0, len(ks))
	for _, k := range ks {
		c, ok := s.columns[k]
		if !ok {
			return nil, fmt.Errorf("component %s: %w", k, ErrComponentNotRegistered)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// Clear empties every array. Outstanding views become stale.
func (s *Store) Clear() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.columns {
		c.clear()
	}
}

// RegisterComponent creates the array for T on first call and returns its
// key. Later calls return the same key without side effects.
func RegisterComponent[T any](s *Store) ComponentKey {
	desc := DescriptorOf[T]()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.columns[desc.Key]; !ok {
		s.columns[desc.Key] = newColumn[T](desc)
	}
	return desc.Key
}

func arrayOf[T any](s *Store) (*componentArray[T], error) {
	k := KeyOf[T]()
	c, ok := s.column(k)
	if !ok {
		return nil, fmt.Errorf("component %s: %w", k, ErrComponentNotRegistered)
	}
	a, ok := c.typed.(*componentArray[T])
	if !ok {
		return nil, fmt.Errorf("component %s holds %T: %w", k, c.typed, ErrComponentTypeMismatch)
	}
	return a, nil
}

// AddComponent inserts v for e, replacing any previous value.
func AddComponent[T any](s *Store, e Entity, v T) error {
	a, err := arrayOf[T](s)
	if err != nil {
		return err
	}
	a.set(e, v)
	return nil
}

// RemoveComponent removes T from e. Absence is not an error.
func RemoveComponent[T any](s *Store, e Entity) error {
	a, err := arrayOf[T](s)
	if err != nil {
		return err
	}
	a.remove(e)
	return nil
}

// GetComponent checks out a view of e's T. No lock is retained.
func GetComponent[T any](s *Store, e Entity) (View[T], error) {
	a, err := arrayOf[T](s)
	if err != nil {
		return View[T]{}, err
	}
	v, ok := a.view(e)
	if !ok {
		return View[T]{}, fmt.Errorf("entity %d, component %s: %w", e, KeyOf[T](), ErrEntityDoesNotOwnComponent)
	}
	return v, nil
}
