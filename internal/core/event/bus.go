package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during frame N are
// delivered by the DispatchAll following the SwapBuffers at the start of
// frame N+1. Emit may be called from any goroutine; SwapBuffers and
// DispatchAll belong to the engine loop.
type Bus struct {
	mu       sync.Mutex
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event into the back buffer.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	b.back[t] = append(b.back[t], event)
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	pending := make(map[reflect.Type][]any, len(b.front))
	handlers := make(map[reflect.Type][]func(any), len(b.front))
	for t, events := range b.front {
		if len(events) == 0 {
			continue
		}
		pending[t] = append([]any(nil), events...)
		handlers[t] = b.handlers[t]
		b.front[t] = events[:0]
	}
	b.mu.Unlock()

	for t, events := range pending {
		for _, ev := range events {
			for _, h := range handlers[t] {
				h(ev)
			}
		}
	}
}

// Pending reports how many events wait in the back buffer.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, events := range b.back {
		n += len(events)
	}
	return n
}
