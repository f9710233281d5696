package ecs

import "fmt"

// Parent marks an entity's single parent in the scene hierarchy.
type Parent struct {
	Entity Entity
}

// Children lists an entity's direct children, kept in sync by SetParent.
type Children struct {
	Entities []Entity
}

// ErrCycle is returned by SetParent when the requested reparenting would
// create a cycle in the hierarchy. The original engine's hierarchy module
// has no rigorous cycle prevention; this resolves that open question by
// detecting and rejecting cycles outright, consistent with the asset
// dependency graph's own AddEdge rejection.
type ErrCycle struct {
	Child  Entity
	Parent Entity
}

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("ecs: SetParent(%s, %s) would create a cycle", e.Child, e.Parent)
}

// SetParent makes parent the new parent of child, detaching child from any
// previous parent and updating both sides' Parent/Children components. It
// rejects the reparent with ErrCycle if parent is child itself or already
// a descendant of child.
func SetParent(w *World, child, parent Entity) error {
	if child == parent {
		return &ErrCycle{Child: child, Parent: parent}
	}
	if isDescendant(w, child, parent) {
		return &ErrCycle{Child: child, Parent: parent}
	}

	if oldParent, ok := Get[Parent](w, child); ok {
		detachChild(w, oldParent.Entity, child)
	}

	Insert(w, child, Parent{Entity: parent})
	kids, _ := Get[Children](w, parent)
	kids.Entities = append(kids.Entities, child)
	Insert(w, parent, kids)
	return nil
}

// isDescendant reports whether needle is a descendant of root (or equal to
// it), walking Children links.
func isDescendant(w *World, root, needle Entity) bool {
	if root == needle {
		return true
	}
	kids, ok := Get[Children](w, root)
	if !ok {
		return false
	}
	for _, c := range kids.Entities {
		if isDescendant(w, c, needle) {
			return true
		}
	}
	return false
}

func detachChild(w *World, parent, child Entity) {
	kids, ok := Get[Children](w, parent)
	if !ok {
		return
	}
	out := kids.Entities[:0]
	for _, c := range kids.Entities {
		if c != child {
			out = append(out, c)
		}
	}
	kids.Entities = out
	Insert(w, parent, kids)
}
