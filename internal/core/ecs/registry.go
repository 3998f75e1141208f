package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// MaxComponentTypes bounds the number of distinct component types a process
// may key. Signatures are 256-bit masks indexed by ComponentKey.
const MaxComponentTypes = 256

// ComponentKey identifies one component type. Keys are allocated per process
// on first use of a type and never change afterwards.
type ComponentKey uint32

// Descriptor statically describes a component type.
type Descriptor struct {
	Key  ComponentKey
	Name string
	Type reflect.Type
}

// keyRegistry maps Go types to process-wide component keys.
type keyRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]ComponentKey
	descs  []Descriptor
}

var keys = &keyRegistry{
	byType: make(map[reflect.Type]ComponentKey, 64),
	descs:  make([]Descriptor, 0, 64),
}

func (r *keyRegistry) keyFor(t reflect.Type) ComponentKey {
	r.mu.RLock()
	k, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return k
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.byType[t]; ok {
		return k
	}
	if len(r.descs) >= MaxComponentTypes {
		panic(fmt.Sprintf("ecs: more than %d component types keyed (adding %s)", MaxComponentTypes, t))
	}
	k = ComponentKey(len(r.descs))
	r.byType[t] = k
	r.descs = append(r.descs, Descriptor{Key: k, Name: t.String(), Type: t})
	return k
}

func (r *keyRegistry) descriptor(k ComponentKey) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(k) >= len(r.descs) {
		return Descriptor{}, false
	}
	return r.descs[k], true
}

// KeyOf returns the process-wide key of component type T.
func KeyOf[T any]() ComponentKey {
	return keys.keyFor(reflect.TypeOf((*T)(nil)).Elem())
}

// DescriptorOf returns the descriptor of component type T.
func DescriptorOf[T any]() Descriptor {
	d, _ := keys.descriptor(KeyOf[T]())
	return d
}

// Describe looks up the descriptor behind a key.
func Describe(k ComponentKey) (Descriptor, bool) {
	return keys.descriptor(k)
}

// String renders the key with its type name, e.g. "3(component.Position)".
func (k ComponentKey) String() string {
	if d, ok := keys.descriptor(k); ok {
		return fmt.Sprintf("%d(%s)", uint32(k), d.Name)
	}
	return fmt.Sprintf("%d(?)", uint32(k))
}
