package ecs

import (
	"github.com/cespare/xxhash/v2"
	freelru "github.com/elastic/go-freelru"

	"github.com/hive-engine/hive/internal/mathutil"
)

// termKind distinguishes how a query term constrains archetype matching
// and, for Added/Changed, how it filters rows within a matched archetype.
type termKind int

const (
	kindRead termKind = iota
	kindWrite
	kindWith
	kindWithout
	kindAdded
	kindChanged
	kindOptional
)

// Term is one compile-time (well, construction-time) component-access
// declaration: Read[T], Write[T], With[T], Without[T], Added[T],
// Changed[T], Optional[T]. A Query is built from a list of Terms.
type Term struct {
	kind termKind
	id   ComponentID
}

// Read declares read-only access to T; T must be present.
func Read[T any]() Term { return Term{kind: kindRead, id: ComponentIDOf[T]()} }

// Write declares write access to T; T must be present. Rows written
// through the query are stamped with the world's current tick.
func Write[T any]() Term { return Term{kind: kindWrite, id: ComponentIDOf[T]()} }

// With requires T's presence without granting access (a filter-only term).
func With[T any]() Term { return Term{kind: kindWith, id: ComponentIDOf[T]()} }

// Without requires T's absence.
func Without[T any]() Term { return Term{kind: kindWithout, id: ComponentIDOf[T]()} }

// Added requires T's change stamp to be >= the system's last_run_tick,
// the same row filter as Changed. Columns keep no separate insert tick,
// so a row whose T was only Set since last_run_tick also passes.
func Added[T any]() Term { return Term{kind: kindAdded, id: ComponentIDOf[T]()} }

// Changed requires T's change stamp to be >= the system's last_run_tick.
func Changed[T any]() Term { return Term{kind: kindChanged, id: ComponentIDOf[T]()} }

// Optional declares nullable access to T: archetypes without T still
// match, but OptionalGet must be used to read it safely.
func Optional[T any]() Term { return Term{kind: kindOptional, id: ComponentIDOf[T]()} }

func (t Term) requiredPresent() bool {
	switch t.kind {
	case kindRead, kindWrite, kindWith, kindAdded, kindChanged:
		return true
	default:
		return false
	}
}

// Query matches archetypes against a fixed term list and exposes batched
// and chunked iteration over the entities of every matching archetype.
// Archetype-match results are cached by the term-list signature, since
// structural changes (registering a new archetype) are far rarer than
// query dispatch; the cache is invalidated against the world's archetype
// generation counter so a reused Query still picks up archetypes created
// after it was first run.
type Query struct {
	world          *World
	terms          []Term
	required       []ComponentID
	without        []ComponentID
	changeFiltered []ComponentID
	matchCache     *freelru.LRU[uint64, []ArchetypeID]
	cachedGen      uint64
	lastRunTick    uint32
}

// NewQuery builds a Query over world for the given terms.
func NewQuery(world *World, terms ...Term) *Query {
	q := &Query{world: world, terms: terms}
	for _, t := range terms {
		if t.requiredPresent() {
			q.required = append(q.required, t.id)
		}
		if t.kind == kindWithout {
			q.without = append(q.without, t.id)
		}
		if t.kind == kindAdded || t.kind == kindChanged {
			q.changeFiltered = append(q.changeFiltered, t.id)
		}
	}
	return q
}

// SetLastRunTick records the tick this query's owning system last ran at,
// used to evaluate Added/Changed terms on the next dispatch.
func (q *Query) SetLastRunTick(tick uint32) { q.lastRunTick = tick }

func (q *Query) signature() uint64 {
	h := xxhash.New()
	buf := make([]byte, 1)
	for _, id := range sortedIDs(q.required) {
		writeU32(h, uint32(id))
	}
	buf[0] = 0xFF
	_, _ = h.Write(buf)
	for _, id := range sortedIDs(q.without) {
		writeU32(h, uint32(id))
	}
	return h.Sum64()
}

func writeU32(h *xxhash.Digest, v uint32) {
	_, _ = h.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// matchingArchetypes returns every archetype id currently satisfying the
// query's required/without sets, using the per-signature cache. The cache
// is dropped whenever the world has registered a new archetype since it
// was last populated, so a long-lived Query still sees entities spawned
// into an archetype created after its first dispatch.
func (q *Query) matchingArchetypes() []ArchetypeID {
	if q.matchCache == nil || q.cachedGen != q.world.archGen {
		cache, _ := freelru.New[uint64, []ArchetypeID](1024, func(k uint64) uint32 { return uint32(k) })
		q.matchCache = cache
		q.cachedGen = q.world.archGen
	}

	sig := q.signature()
	if ids, ok := q.matchCache.Get(sig); ok {
		return ids
	}
	var ids []ArchetypeID
	for id, a := range q.world.archs {
		if a.supersetOf(q.required, q.without) {
			ids = append(ids, id)
		}
	}
	q.matchCache.Add(sig, ids)
	return ids
}

// rowPassesChangeFilters reports whether row in arch satisfies every
// Added/Changed term declared on the query.
func (q *Query) rowPassesChangeFilters(arch *archetype, row int) bool {
	for _, id := range q.changeFiltered {
		col, ok := arch.columns[id]
		if !ok {
			return false
		}
		tick := col.tickAt(row)
		if mathutil.TickBefore(tick, q.lastRunTick) {
			return false
		}
	}
	return true
}

// Each invokes fn once per matching entity, in archetype-then-row order.
// fn reads/writes components via the package-level Get/Set/Insert helpers
// on q.world; Write terms do not automatically stamp rows touched only
// through fn's own logic outside of Set — callers that mutate in place
// through a returned pointer should call Set explicitly to record the
// change tick.
func (q *Query) Each(fn func(e Entity)) {
	for _, aid := range q.matchingArchetypes() {
		arch := q.world.archs[aid]
		for row, e := range arch.rowToEntity {
			if !q.rowPassesChangeFilters(arch, row) {
				continue
			}
			fn(e)
		}
	}
}

// Chunk is a contiguous row range within one archetype, the unit
// ForEachChunk hands to the caller so systems can parallelize across
// chunks themselves if their declared access permits it.
type Chunk struct {
	Entities []Entity
}

// ForEachChunk invokes fn once per matching archetype with its full row
// range as a single chunk. Per-row Added/Changed filtering still applies
// within the chunk's Entities slice being pre-filtered.
func (q *Query) ForEachChunk(fn func(Chunk)) {
	for _, aid := range q.matchingArchetypes() {
		arch := q.world.archs[aid]
		if len(q.changeFiltered) == 0 {
			fn(Chunk{Entities: append([]Entity(nil), arch.rowToEntity...)})
			continue
		}
		var filtered []Entity
		for row, e := range arch.rowToEntity {
			if q.rowPassesChangeFilters(arch, row) {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) > 0 {
			fn(Chunk{Entities: filtered})
		}
	}
}
