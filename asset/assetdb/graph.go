package assetdb

import (
	"errors"

	"github.com/google/uuid"
)

// DepKind classifies a dependency edge, mirroring Nectar's dep_kind.h
// bitmask flags. A Hard dependency must be loaded before its dependent; a
// Soft one is used if present but isn't required; a Build dependency is
// needed only at cook time, not at load time.
type DepKind uint8

const (
	DepHard  DepKind = 1 << iota // A needs B to exist (load B before A)
	DepSoft                      // A can use B but works without it
	DepBuild                     // A depends on B at cook time only

	// DepKindAll matches every edge kind.
	DepKindAll = DepHard | DepSoft | DepBuild
	// DepKindCascade is the set of kinds a cook-cache cascade invalidation
	// must follow: a changed Hard or Build dependency invalidates its
	// dependents, a changed Soft one does not.
	DepKindCascade = DepHard | DepBuild
)

// Has reports whether any of flag's bits are set in k, used to test an
// edge's kind against a filter mask.
func (k DepKind) Has(flag DepKind) bool { return k&flag != 0 }

func (k DepKind) String() string {
	switch k {
	case DepHard:
		return "Hard"
	case DepSoft:
		return "Soft"
	case DepBuild:
		return "Build"
	default:
		return "Mixed"
	}
}

// ErrDependencyCycle is returned by AddEdge when adding the edge would
// close a cycle in the dependency graph.
var ErrDependencyCycle = errors.New("assetdb: dependency cycle")

// DependencyGraph tracks asset-to-asset dependency edges, each carrying a
// DepKind, and rejects edges that would close a cycle, mirroring
// Nectar's dependency_graph.h.
type DependencyGraph struct {
	// forward[a][b] = kind of the edge recording that a depends on b.
	forward map[uuid.UUID]map[uuid.UUID]DepKind
	// reverse[b][a] = kind of the edge recording that a depends on b.
	reverse map[uuid.UUID]map[uuid.UUID]DepKind
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		forward: make(map[uuid.UUID]map[uuid.UUID]DepKind),
		reverse: make(map[uuid.UUID]map[uuid.UUID]DepKind),
	}
}

func (g *DependencyGraph) addNode(id uuid.UUID) {
	if _, ok := g.forward[id]; !ok {
		g.forward[id] = make(map[uuid.UUID]DepKind)
	}
	if _, ok := g.reverse[id]; !ok {
		g.reverse[id] = make(map[uuid.UUID]DepKind)
	}
}

// AddEdge records that from depends on to with the given kind. Returns
// ErrDependencyCycle, leaving the graph unchanged, if to already
// (transitively) depends on from.
func (g *DependencyGraph) AddEdge(from, to uuid.UUID, kind DepKind) error {
	g.addNode(from)
	g.addNode(to)
	if from == to || g.reachable(to, from) {
		return ErrDependencyCycle
	}
	g.forward[from][to] = kind
	g.reverse[to][from] = kind
	return nil
}

// reachable reports whether target is reachable from start by following
// forward (depends-on) edges, regardless of kind.
func (g *DependencyGraph) reachable(start, target uuid.UUID) bool {
	if start == target {
		return true
	}
	visited := make(map[uuid.UUID]struct{})
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		if n == target {
			return true
		}
		for next := range g.forward[n] {
			stack = append(stack, next)
		}
	}
	return false
}

// Dependencies returns the direct dependencies of id whose edge kind
// intersects filter.
func (g *DependencyGraph) Dependencies(id uuid.UUID, filter DepKind) []uuid.UUID {
	return filterToSlice(g.forward[id], filter)
}

// Dependents returns the assets directly depending on id whose edge kind
// intersects filter.
func (g *DependencyGraph) Dependents(id uuid.UUID, filter DepKind) []uuid.UUID {
	return filterToSlice(g.reverse[id], filter)
}

// ReverseDependents returns every asset transitively depending on id by
// following only edges whose kind intersects filter. Cascade invalidation
// passes DepKindCascade so that a Soft dependent is never recooked just
// because the asset it softly references changed.
func (g *DependencyGraph) ReverseDependents(id uuid.UUID, filter DepKind) []uuid.UUID {
	visited := make(map[uuid.UUID]struct{})
	stack := append([]uuid.UUID{}, filterToSlice(g.reverse[id], filter)...)
	var out []uuid.UUID
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		out = append(out, n)
		stack = append(stack, filterToSlice(g.reverse[n], filter)...)
	}
	return out
}

// TopologicalSort returns a permutation of every node such that every
// dependency edge goes from a later position to an earlier one (i.e.
// dependencies come before dependents), via Kahn's algorithm, following
// edges of any kind. Returns ErrDependencyCycle if the graph contains a
// cycle — which AddEdge's rejection should make unreachable in practice.
func (g *DependencyGraph) TopologicalSort() ([]uuid.UUID, error) {
	levels, err := g.TopologicalSortLevels()
	if err != nil {
		return nil, err
	}
	var out []uuid.UUID
	for _, level := range levels {
		out = append(out, level...)
	}
	return out, nil
}

// TopologicalSortLevels groups nodes into levels such that every node in
// level N depends only on nodes in levels < N, used by the cook pipeline
// to cook each level's assets in parallel. Grounded on
// Nectar/include/nectar/database/dependency_graph.h's level-based sort.
func (g *DependencyGraph) TopologicalSortLevels() ([][]uuid.UUID, error) {
	inDegree := make(map[uuid.UUID]int, len(g.forward))
	for id, deps := range g.forward {
		inDegree[id] = len(deps)
	}

	var levels [][]uuid.UUID
	remaining := len(inDegree)
	for remaining > 0 {
		var frontier []uuid.UUID
		for id, deg := range inDegree {
			if deg == 0 {
				frontier = append(frontier, id)
			}
		}
		if len(frontier) == 0 {
			return nil, ErrDependencyCycle
		}
		for _, id := range frontier {
			delete(inDegree, id)
			remaining--
		}
		for id := range inDegree {
			for _, dep := range frontier {
				if _, ok := g.forward[id][dep]; ok {
					inDegree[id]--
				}
			}
		}
		levels = append(levels, frontier)
	}
	return levels, nil
}

func filterToSlice(m map[uuid.UUID]DepKind, filter DepKind) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id, kind := range m {
		if kind.Has(filter) {
			out = append(out, id)
		}
	}
	return out
}
