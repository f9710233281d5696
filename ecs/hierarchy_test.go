package ecs

import "testing"

func TestSetParentBuildsChildrenList(t *testing.T) {
	w := NewWorld(nil)
	parent := w.Spawn()
	child := w.Spawn()

	if err := SetParent(w, child, parent); err != nil {
		t.Fatalf("SetParent error: %v", err)
	}
	p, ok := Get[Parent](w, child)
	if !ok || p.Entity != parent {
		t.Fatalf("expected child's Parent to be %v, got %+v %v", parent, p, ok)
	}
	kids, ok := Get[Children](w, parent)
	if !ok || len(kids.Entities) != 1 || kids.Entities[0] != child {
		t.Fatalf("expected parent's Children to contain child, got %+v %v", kids, ok)
	}
}

func TestSetParentRejectsCycle(t *testing.T) {
	w := NewWorld(nil)
	a := w.Spawn()
	b := w.Spawn()
	if err := SetParent(w, b, a); err != nil {
		t.Fatalf("SetParent(b, a) error: %v", err)
	}
	if err := SetParent(w, a, b); err == nil {
		t.Fatal("expected SetParent(a, b) to fail: a is already b's parent")
	}
	if err := SetParent(w, a, a); err == nil {
		t.Fatal("expected self-parenting to be rejected")
	}
}

func TestSetParentReparenting(t *testing.T) {
	w := NewWorld(nil)
	p1 := w.Spawn()
	p2 := w.Spawn()
	child := w.Spawn()

	SetParent(w, child, p1)
	SetParent(w, child, p2)

	kids1, _ := Get[Children](w, p1)
	for _, c := range kids1.Entities {
		if c == child {
			t.Fatal("expected child detached from p1 after reparenting")
		}
	}
	kids2, _ := Get[Children](w, p2)
	if len(kids2.Entities) != 1 || kids2.Entities[0] != child {
		t.Fatalf("expected child attached to p2, got %+v", kids2)
	}
}
