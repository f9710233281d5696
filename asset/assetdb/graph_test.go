package assetdb

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddEdgeRejectsCycle(t *testing.T) {
	g := NewDependencyGraph()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	if err := g.AddEdge(a, b, DepHard); err != nil {
		t.Fatalf("a->b: %v", err)
	}
	if err := g.AddEdge(b, c, DepHard); err != nil {
		t.Fatalf("b->c: %v", err)
	}
	if err := g.AddEdge(c, a, DepHard); err != ErrDependencyCycle {
		t.Fatalf("expected ErrDependencyCycle closing c->a, got %v", err)
	}
	if err := g.AddEdge(a, a, DepHard); err != ErrDependencyCycle {
		t.Fatalf("expected ErrDependencyCycle for self-edge, got %v", err)
	}
}

func TestTopologicalSortOrdering(t *testing.T) {
	g := NewDependencyGraph()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	// d depends on b and c; b and c both depend on a.
	must(t, g.AddEdge(b, a, DepHard))
	must(t, g.AddEdge(c, a, DepHard))
	must(t, g.AddEdge(d, b, DepHard))
	must(t, g.AddEdge(d, c, DepHard))

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	pos := make(map[uuid.UUID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos[a] >= pos[b] || pos[a] >= pos[c] || pos[b] >= pos[d] || pos[c] >= pos[d] {
		t.Fatalf("dependency ordering violated: %v", order)
	}
}

func TestTopologicalSortLevelsGroupsByDepth(t *testing.T) {
	g := NewDependencyGraph()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	must(t, g.AddEdge(b, a, DepHard))
	must(t, g.AddEdge(c, a, DepHard))

	levels, err := g.TopologicalSortLevels()
	if err != nil {
		t.Fatalf("TopologicalSortLevels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %v", len(levels), levels)
	}
	if len(levels[0]) != 1 || levels[0][0] != a {
		t.Fatalf("expected level 0 = [a], got %v", levels[0])
	}
	if len(levels[1]) != 2 {
		t.Fatalf("expected level 1 to contain b and c, got %v", levels[1])
	}
}

func TestReverseDependents(t *testing.T) {
	g := NewDependencyGraph()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	must(t, g.AddEdge(b, a, DepHard))
	must(t, g.AddEdge(c, b, DepHard))

	deps := g.ReverseDependents(a, DepKindAll)
	found := map[uuid.UUID]bool{}
	for _, id := range deps {
		found[id] = true
	}
	if !found[b] || !found[c] {
		t.Fatalf("expected b and c to transitively depend on a, got %v", deps)
	}
}

func TestReverseDependentsExcludesSoftEdgesUnderCascadeFilter(t *testing.T) {
	g := NewDependencyGraph()
	a, hardDependent, softDependent := uuid.New(), uuid.New(), uuid.New()
	must(t, g.AddEdge(hardDependent, a, DepHard))
	must(t, g.AddEdge(softDependent, a, DepSoft))

	deps := g.ReverseDependents(a, DepKindCascade)
	found := map[uuid.UUID]bool{}
	for _, id := range deps {
		found[id] = true
	}
	if !found[hardDependent] {
		t.Fatalf("expected hard dependent to be included in cascade, got %v", deps)
	}
	if found[softDependent] {
		t.Fatalf("expected soft dependent to be excluded from cascade, got %v", deps)
	}
}

func TestDependenciesFiltersByKind(t *testing.T) {
	g := NewDependencyGraph()
	a, hard, soft, build := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	must(t, g.AddEdge(a, hard, DepHard))
	must(t, g.AddEdge(a, soft, DepSoft))
	must(t, g.AddEdge(a, build, DepBuild))

	cascade := g.Dependencies(a, DepKindCascade)
	found := map[uuid.UUID]bool{}
	for _, id := range cascade {
		found[id] = true
	}
	if !found[hard] || !found[build] {
		t.Fatalf("expected hard and build deps under cascade filter, got %v", cascade)
	}
	if found[soft] {
		t.Fatalf("expected soft dep excluded under cascade filter, got %v", cascade)
	}

	all := g.Dependencies(a, DepKindAll)
	if len(all) != 3 {
		t.Fatalf("expected all 3 deps under DepKindAll, got %v", all)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
