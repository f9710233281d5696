package ecs

import "testing"

func TestObserveInsert(t *testing.T) {
	w := NewWorld(nil)
	var seen Entity
	var seenVal Position
	ObserveInsert[Position](w, nil, func(w *World, e Entity, value Position) {
		seen = e
		seenVal = value
	})

	e := w.Spawn()
	Insert(w, e, Position{X: 7})
	if seen != e {
		t.Fatalf("expected observer to see %v, got %v", e, seen)
	}
	if seenVal.X != 7 {
		t.Fatalf("expected observed value X=7, got %+v", seenVal)
	}
}

func TestObserveRemoveFilter(t *testing.T) {
	w := NewWorld(nil)
	var fired int
	ObserveRemove[Position](w, []ComponentID{ComponentIDOf[Velocity]()}, func(w *World, e Entity, value Position) {
		fired++
	})

	a := w.Spawn()
	Insert(w, a, Position{})
	Remove[Position](w, a) // no Velocity present: filter should suppress

	b := w.Spawn()
	Insert(w, b, Position{})
	Insert(w, b, Velocity{})
	Remove[Position](w, b) // Velocity present: filter should allow

	if fired != 1 {
		t.Fatalf("expected exactly 1 filtered observer firing, got %d", fired)
	}
}
