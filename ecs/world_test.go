package ecs

import "testing"

type Position struct{ X, Y, Z float32 }
type Velocity struct{ X, Y, Z float32 }

func TestInsertGetRemove(t *testing.T) {
	w := NewWorld(nil)
	e := w.Spawn()

	if ok := Insert(w, e, Position{1, 2, 3}); !ok {
		t.Fatal("expected Insert to succeed")
	}
	pos, ok := Get[Position](w, e)
	if !ok || pos != (Position{1, 2, 3}) {
		t.Fatalf("Get = %+v, %v", pos, ok)
	}
	if !Has[Position](w, e) {
		t.Fatal("expected Has to report true")
	}
	if ok := Remove[Position](w, e); !ok {
		t.Fatal("expected Remove to succeed")
	}
	if Has[Position](w, e) {
		t.Fatal("expected Has to report false after Remove")
	}
}

func TestMoveEntityPreservesOtherColumns(t *testing.T) {
	w := NewWorld(nil)
	e := w.Spawn()
	Insert(w, e, Position{1, 2, 3})
	Insert(w, e, Velocity{4, 5, 6})
	Remove[Velocity](w, e)

	pos, ok := Get[Position](w, e)
	if !ok || pos != (Position{1, 2, 3}) {
		t.Fatalf("Position should survive Velocity removal, got %+v %v", pos, ok)
	}
	if Has[Velocity](w, e) {
		t.Fatal("expected Velocity removed")
	}
}

func TestChangeDetection(t *testing.T) {
	w := NewWorld(nil)
	e := w.Spawn()
	Insert(w, e, Position{1, 2, 3}) // tick 0

	w.AdvanceTick() // tick 1
	lastRunBeforeWrite := w.CurrentTick()
	Set(w, e, Position{4, 5, 6}) // stamps tick 1

	w.AdvanceTick() // tick 2
	q := NewQuery(w, Write[Position]())
	q.SetLastRunTick(lastRunBeforeWrite)

	var seen []Entity
	q.Each(func(ent Entity) { seen = append(seen, ent) })
	if len(seen) != 1 || seen[0] != e {
		t.Fatalf("expected to see exactly e, got %v", seen)
	}
}

func TestQuerySoundness(t *testing.T) {
	w := NewWorld(nil)
	a := w.Spawn()
	Insert(w, a, Position{})
	Insert(w, a, Velocity{})

	b := w.Spawn()
	Insert(w, b, Position{})

	q := NewQuery(w, Read[Position](), Without[Velocity]())
	var seen []Entity
	q.Each(func(e Entity) { seen = append(seen, e) })
	if len(seen) != 1 || seen[0] != b {
		t.Fatalf("expected only b to match, got %v", seen)
	}
}

func TestQueryPicksUpArchetypeCreatedAfterFirstRun(t *testing.T) {
	w := NewWorld(nil)
	q := NewQuery(w, Read[Position]())

	a := w.Spawn()
	Insert(w, a, Position{1, 2, 3})
	var seen []Entity
	q.Each(func(e Entity) { seen = append(seen, e) })
	if len(seen) != 1 || seen[0] != a {
		t.Fatalf("expected only a on first run, got %v", seen)
	}

	// b lands in a brand new archetype (Position+Velocity) that didn't
	// exist when q's match cache was first populated.
	b := w.Spawn()
	Insert(w, b, Position{4, 5, 6})
	Insert(w, b, Velocity{7, 8, 9})

	seen = nil
	q.Each(func(e Entity) { seen = append(seen, e) })
	if len(seen) != 2 {
		t.Fatalf("expected the reused query to see both a and b, got %v", seen)
	}
}

func TestResourceChangeDetection(t *testing.T) {
	w := NewWorld(nil)
	type Config struct{ MaxEntities int }
	SetResource(w, Config{MaxEntities: 10})
	before := w.CurrentTick()
	w.AdvanceTick()
	SetResource(w, Config{MaxEntities: 20})
	if !ResourceChangedSince[Config](w, before) {
		t.Fatal("expected resource change to be detected")
	}
}
