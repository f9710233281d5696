package ecs

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// ArchetypeID identifies an archetype by the hash of its sorted,
// de-duplicated component-id vector: two entities with the same
// component set always land in the same archetype.
type ArchetypeID uint64

// sortedIDs returns a sorted, de-duplicated copy of ids.
func sortedIDs(ids []ComponentID) []ComponentID {
	out := append([]ComponentID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	deduped := out[:0]
	for i, id := range out {
		if i == 0 || id != out[i-1] {
			deduped = append(deduped, id)
		}
	}
	return deduped
}

// archetypeIDFor hashes a sorted component-id vector into an ArchetypeID.
func archetypeIDFor(sorted []ComponentID) ArchetypeID {
	h := xxhash.New()
	buf := make([]byte, 4)
	for _, id := range sorted {
		binary.LittleEndian.PutUint32(buf, uint32(id))
		_, _ = h.Write(buf)
	}
	return ArchetypeID(h.Sum64())
}

// archetype is the storage bucket for every entity sharing an exact
// component set. Columns hold one dense array per component type; rowToEntity
// tracks which Entity owns each row so swap-removal can patch the moved
// entity's location.
type archetype struct {
	id          ArchetypeID
	types       []ComponentID // sorted
	columns     map[ComponentID]column
	rowToEntity []Entity
}

func newArchetype(types []ComponentID) *archetype {
	sorted := sortedIDs(types)
	cols := make(map[ComponentID]column, len(sorted))
	for _, id := range sorted {
		cols[id] = newColumnFor(id)
	}
	return &archetype{
		id:      archetypeIDFor(sorted),
		types:   sorted,
		columns: cols,
	}
}

func (a *archetype) has(id ComponentID) bool {
	_, ok := a.columns[id]
	return ok
}

// supersetOf reports whether a's type set is a superset of required and
// disjoint from without — the archetype-matching rule every query filter
// reduces to.
func (a *archetype) supersetOf(required, without []ComponentID) bool {
	for _, id := range required {
		if !a.has(id) {
			return false
		}
	}
	for _, id := range without {
		if a.has(id) {
			return false
		}
	}
	return true
}

func (a *archetype) rowCount() int { return len(a.rowToEntity) }

// allocRow appends a new, zero-valued row for e and returns its index.
func (a *archetype) allocRow(e Entity) int {
	for _, c := range a.columns {
		c.appendZero()
	}
	a.rowToEntity = append(a.rowToEntity, e)
	return len(a.rowToEntity) - 1
}

// removeRow swap-removes row, returning the entity that was moved into its
// place (or Invalid if row was the last row).
func (a *archetype) removeRow(row int) Entity {
	last := len(a.rowToEntity) - 1
	for _, c := range a.columns {
		c.swapRemove(row)
	}
	if row == last {
		a.rowToEntity = a.rowToEntity[:last]
		return Invalid
	}
	moved := a.rowToEntity[last]
	a.rowToEntity[row] = moved
	a.rowToEntity = a.rowToEntity[:last]
	return moved
}

// typesPlus returns a's type set with id added (idempotent).
func (a *archetype) typesPlus(id ComponentID) []ComponentID {
	return sortedIDs(append(append([]ComponentID(nil), a.types...), id))
}

// typesMinus returns a's type set with id removed.
func (a *archetype) typesMinus(id ComponentID) []ComponentID {
	out := make([]ComponentID, 0, len(a.types))
	for _, t := range a.types {
		if t != id {
			out = append(out, t)
		}
	}
	return out
}
