package ecs

import (
	"errors"
	"sync"
	"testing"
)

type position struct{ X, Y int }

type velocity struct{ DX, DY int }

type health struct{ HP int }

type neverRegistered struct{}

func TestRegisterComponentIdempotent(t *testing.T) {
	s := NewStore()
	k1 := RegisterComponent[position](s)
	k2 := RegisterComponent[position](s)
	if k1 != k2 {
		t.Fatalf("keys differ: %v != %v", k1, k2)
	}
	if k1 != KeyOf[position]() {
		t.Errorf("RegisterComponent key %v != KeyOf %v", k1, KeyOf[position]())
	}

	e := Entity(7)
	if err := AddComponent(s, e, position{X: 1}); err != nil {
		t.Fatal(err)
	}
	RegisterComponent[position](s)
	if err := AddComponent(s, e, position{X: 2}); err != nil {
		t.Fatal(err)
	}

	n, err := s.Len(k2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Len() = %d, want a single stored value", n)
	}
	v, _ := GetComponent[position](s, e)
	got, _ := v.Value()
	if got.X != 2 {
		t.Errorf("stored X = %d, want 2", got.X)
	}
}

func TestUnregisteredComponentFails(t *testing.T) {
	s := NewStore()
	RegisterComponent[position](s)
	e := Entity(0)

	tests := []struct {
		name string
		call func() error
	}{
		{"AddComponent", func() error { return AddComponent(s, e, neverRegistered{}) }},
		{"RemoveComponent", func() error { return RemoveComponent[neverRegistered](s, e) }},
		{"GetComponent", func() error { _, err := GetComponent[neverRegistered](s, e); return err }},
		{"HasComponents", func() error {
			_, err := s.HasComponents(e, KeyOf[position](), KeyOf[neverRegistered]())
			return err
		}},
		{"Len", func() error { _, err := s.Len(KeyOf[neverRegistered]()); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrComponentNotRegistered) {
				t.Errorf("error = %v, want ErrComponentNotRegistered", err)
			}
		})
	}
}

func TestUnregisteredKeyFailsRegardlessOfOwnership(t *testing.T) {
	s := NewStore()
	pos := RegisterComponent[position](s)
	RegisterComponent[velocity](s)
	AddComponent(s, 1, position{})

	tests := []struct {
		name   string
		entity Entity
		keys   []ComponentKey
	}{
		{"lacks first key", 0, []ComponentKey{pos, KeyOf[neverRegistered]()}},
		{"owns first key", 1, []ComponentKey{pos, KeyOf[neverRegistered]()}},
		{"lacks registered key", 1, []ComponentKey{KeyOf[velocity](), KeyOf[neverRegistered]()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.HasComponents(tt.entity, tt.keys...); !errors.Is(err, ErrComponentNotRegistered) {
				t.Errorf("HasComponents() error = %v, want ErrComponentNotRegistered", err)
			}
		})
	}
}

func TestMatchRejectsUnregisteredKeyWithoutEntities(t *testing.T) {
	s := NewStore()
	pos := RegisterComponent[position](s)

	if _, err := Match(s, nil, pos, KeyOf[neverRegistered]()); !errors.Is(err, ErrComponentNotRegistered) {
		t.Errorf("Match() error = %v, want ErrComponentNotRegistered", err)
	}
	matched, err := Match(s, nil, pos)
	if err != nil || len(matched) != 0 {
		t.Errorf("Match() = %v, %v; want empty, nil", matched, err)
	}
}

func TestRemoveComponentTypeMismatch(t *testing.T) {
	s := NewStore()
	k := RegisterComponent[position](s)
	s.columns[k].typed = newComponentArray[velocity]()

	tests := []struct {
		name string
		call func() error
	}{
		{"RemoveComponent", func() error { return RemoveComponent[position](s, 0) }},
		{"AddComponent", func() error { return AddComponent(s, 0, position{}) }},
		{"GetComponent", func() error { _, err := GetComponent[position](s, 0); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrComponentTypeMismatch) {
				t.Errorf("error = %v, want ErrComponentTypeMismatch", err)
			}
		})
	}
}

func TestHasComponents(t *testing.T) {
	s := NewStore()
	pk := RegisterComponent[position](s)
	vk := RegisterComponent[velocity](s)

	AddComponent(s, 1, position{})
	AddComponent(s, 1, velocity{})
	AddComponent(s, 2, position{})

	tests := []struct {
		name   string
		entity Entity
		keys   []ComponentKey
		want   bool
	}{
		{"both", 1, []ComponentKey{pk, vk}, true},
		{"missing velocity", 2, []ComponentKey{pk, vk}, false},
		{"single", 2, []ComponentKey{pk}, true},
		{"empty signature", 3, nil, true},
		{"absent entity", 3, []ComponentKey{pk}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.HasComponents(tt.entity, tt.keys...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("HasComponents() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetComponentMissing(t *testing.T) {
	s := NewStore()
	RegisterComponent[position](s)
	RegisterComponent[velocity](s)
	AddComponent(s, 0, position{})

	_, err := GetComponent[velocity](s, 0)
	if !errors.Is(err, ErrEntityDoesNotOwnComponent) {
		t.Fatalf("error = %v, want ErrEntityDoesNotOwnComponent", err)
	}
}

func TestViewBorrowMutatesStoredValue(t *testing.T) {
	s := NewStore()
	RegisterComponent[position](s)
	AddComponent(s, 3, position{X: 1, Y: 1})

	v, err := GetComponent[position](s, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Borrow(func(p *position) { p.X += 10 }); err != nil {
		t.Fatal(err)
	}

	again, _ := GetComponent[position](s, 3)
	got, _ := again.Value()
	if got.X != 11 || got.Y != 1 {
		t.Errorf("stored = %+v, want {11 1}", got)
	}
}

func TestViewStaleAfterRemove(t *testing.T) {
	s := NewStore()
	RegisterComponent[health](s)
	AddComponent(s, 1, health{HP: 10})

	v, _ := GetComponent[health](s, 1)
	RemoveComponent[health](s, 1)
	// slot gets reused by another entity
	AddComponent(s, 2, health{HP: 99})

	if _, err := v.Get(); !errors.Is(err, ErrStaleComponent) {
		t.Errorf("Get() error = %v, want ErrStaleComponent", err)
	}
	if err := v.Borrow(func(*health) { t.Error("borrow ran on stale view") }); !errors.Is(err, ErrStaleComponent) {
		t.Errorf("Borrow() error = %v, want ErrStaleComponent", err)
	}
	var zero View[health]
	if _, err := zero.Value(); !errors.Is(err, ErrStaleComponent) {
		t.Errorf("zero View Value() error = %v, want ErrStaleComponent", err)
	}
}

func TestViewSurvivesReplace(t *testing.T) {
	s := NewStore()
	RegisterComponent[health](s)
	AddComponent(s, 1, health{HP: 10})

	v, _ := GetComponent[health](s, 1)
	AddComponent(s, 1, health{HP: 20})

	got, err := v.Value()
	if err != nil {
		t.Fatal(err)
	}
	if got.HP != 20 {
		t.Errorf("HP = %d, want 20", got.HP)
	}
}

func TestRemoveComponentsClearsEveryArray(t *testing.T) {
	s := NewStore()
	pk := RegisterComponent[position](s)
	vk := RegisterComponent[velocity](s)
	AddComponent(s, 5, position{})
	AddComponent(s, 5, velocity{})
	AddComponent(s, 6, position{})

	s.RemoveComponents(5)

	for _, k := range []ComponentKey{pk, vk} {
		if ok, _ := s.HasComponents(5, k); ok {
			t.Errorf("entity 5 still owns %v", k)
		}
	}
	if ok, _ := s.HasComponents(6, pk); !ok {
		t.Error("entity 6 lost its position")
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	pk := RegisterComponent[position](s)
	AddComponent(s, 1, position{})
	v, _ := GetComponent[position](s, 1)

	s.Clear()

	if n, _ := s.Len(pk); n != 0 {
		t.Errorf("Len() = %d after Clear", n)
	}
	if _, err := v.Get(); !errors.Is(err, ErrStaleComponent) {
		t.Errorf("Get() error = %v, want ErrStaleComponent", err)
	}
	if !s.IsRegistered(pk) {
		t.Error("Clear must keep registrations")
	}
}

func TestStoreConcurrentDisjointArrays(t *testing.T) {
	s := NewStore()
	RegisterComponent[position](s)
	RegisterComponent[velocity](s)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for e := Entity(0); e < 500; e++ {
			AddComponent(s, e, position{X: int(e)})
		}
	}()
	go func() {
		defer wg.Done()
		for e := Entity(0); e < 500; e++ {
			AddComponent(s, e, velocity{DX: int(e)})
		}
	}()
	wg.Wait()

	matched, err := Match(s, []Entity{0, 250, 499, 500}, KeyOf[position](), KeyOf[velocity]())
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 3 {
		t.Errorf("Match() = %v, want 3 entities", matched)
	}
}

func TestEach2(t *testing.T) {
	s := NewStore()
	RegisterComponent[position](s)
	RegisterComponent[velocity](s)
	for e := Entity(0); e < 4; e++ {
		AddComponent(s, e, position{})
		if e%2 == 0 {
			AddComponent(s, e, velocity{DX: 1, DY: 2})
		}
	}

	visited := 0
	err := Each2(s, []Entity{0, 1, 2, 3}, func(e Entity, p View[position], v View[velocity]) {
		visited++
		vel, _ := v.Value()
		p.Borrow(func(pos *position) {
			pos.X += vel.DX
			pos.Y += vel.DY
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if visited != 2 {
		t.Errorf("visited %d entities, want 2", visited)
	}
	v, _ := GetComponent[position](s, 2)
	if got, _ := v.Value(); got != (position{X: 1, Y: 2}) {
		t.Errorf("position = %+v, want {1 2}", got)
	}
}

func TestComponentKeyString(t *testing.T) {
	k := KeyOf[position]()
	d, ok := Describe(k)
	if !ok {
		t.Fatal("Describe() found nothing")
	}
	if d.Name != "ecs.position" {
		t.Errorf("Name = %q, want ecs.position", d.Name)
	}
	if DescriptorOf[position]().Key != k {
		t.Error("DescriptorOf key mismatch")
	}
}
