// Package ecs implements the archetype-based entity-component-system: entity
// identity and recycling, archetype/table storage, queries, a deferred
// command buffer, observers, change detection, events, resources, and the
// parallel DAG scheduler.
package ecs

import "fmt"

// EntityFlags marks per-entity runtime state. Only Alive is defined today;
// the type leaves room for flags like pending-destroy without widening
// Entity itself.
type EntityFlags uint16

// Alive is set on every entity returned by Spawn. Handles are values, so
// Despawn does not clear it on copies already handed out; use
// EntityAllocator.IsAlive to detect a stale handle.
const Alive EntityFlags = 1 << 0

// Entity is a 64-bit handle: a 32-bit index into the allocator's slot
// table, a 16-bit generation guarding against stale-handle reuse, and a
// 16-bit flags field.
type Entity struct {
	Index      uint32
	Generation uint16
	Flags      EntityFlags
}

// Invalid is the zero Entity, never returned by Spawn.
var Invalid = Entity{}

// IsAlive reports whether the handle's flags mark it alive. It does not by
// itself validate the handle against an allocator's generation table — use
// EntityAllocator.IsAlive for that.
func (e Entity) IsAlive() bool { return e.Flags&Alive != 0 }

// String renders the handle as "index:generation" for logs and tests.
func (e Entity) String() string { return fmt.Sprintf("%d:%d", e.Index, e.Generation) }

// EntityAllocator hands out and recycles Entity handles with generation
// counters that invalidate stale handles after Despawn.
//
// Spawn draws from a LIFO free list when non-empty, else appends a fresh
// index; the generation array grows on demand. Despawn no-ops on an
// already-dead handle, else bumps the slot's generation and pushes the
// index back onto the free list. Generation wraps at 65536 reuses of the
// same index; collisions are accepted as extremely improbable.
type EntityAllocator struct {
	generations []uint16
	freeList    []uint32
}

// NewEntityAllocator returns an empty allocator.
func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{}
}

// Spawn returns a fresh, live Entity handle.
func (a *EntityAllocator) Spawn() Entity {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		return Entity{Index: idx, Generation: a.generations[idx], Flags: Alive}
	}
	idx := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	return Entity{Index: idx, Generation: 0, Flags: Alive}
}

// Despawn retires e. It is a no-op if e is already stale or dead.
func (a *EntityAllocator) Despawn(e Entity) {
	if !a.IsAlive(e) {
		return
	}
	idx := e.Index
	a.generations[idx]++ // wraps at 65536 by uint16 overflow, per contract
	a.freeList = append(a.freeList, idx)
}

// IsAlive reports whether e's generation matches the slot's current
// generation, i.e. whether e has not been despawned (or reused by a later
// Spawn) since it was returned.
func (a *EntityAllocator) IsAlive(e Entity) bool {
	if int(e.Index) >= len(a.generations) {
		return false
	}
	return e.Generation == a.generations[e.Index]
}

// Len reports the number of index slots ever allocated (live + recycled).
func (a *EntityAllocator) Len() int { return len(a.generations) }
