package ecs

import (
	"context"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hive-engine/hive/internal/hivelog"
)

// Access declares one system's component, resource, and exclusivity
// footprint, used by the scheduler to compute conflicts.
type Access struct {
	Reads     []ComponentID
	Writes    []ComponentID
	ResReads  []ComponentID
	ResWrites []ComponentID
	Exclusive bool
}

// SystemFunc is one scheduled unit of work.
type SystemFunc func(w *World, cmds *CommandBuffer)

// registeredSystem pairs a system's body with its declared access and
// stable registration index.
type registeredSystem struct {
	name   string
	access Access
	run    SystemFunc
	index  int

	cmds        *CommandBuffer
	lastRunTick uint32
}

// conflicts reports whether a and b's access sets intersect with at least
// one write on either side, or either is exclusive.
func (a Access) conflicts(b Access) bool {
	if a.Exclusive || b.Exclusive {
		return true
	}
	if intersectsWithWrite(a.Writes, b.Reads) || intersectsWithWrite(a.Writes, b.Writes) {
		return true
	}
	if intersectsWithWrite(b.Writes, a.Reads) {
		return true
	}
	if intersectsWithWrite(a.ResWrites, b.ResReads) || intersectsWithWrite(a.ResWrites, b.ResWrites) {
		return true
	}
	if intersectsWithWrite(b.ResWrites, a.ResReads) {
		return true
	}
	return false
}

func intersectsWithWrite(writes, other []ComponentID) bool {
	if len(writes) == 0 || len(other) == 0 {
		return false
	}
	set := make(map[ComponentID]struct{}, len(writes))
	for _, w := range writes {
		set[w] = struct{}{}
	}
	for _, o := range other {
		if _, ok := set[o]; ok {
			return true
		}
	}
	return false
}

// schedNode is one compiled DAG node: the system plus its successors and
// original in-degree, rebuilt whenever the scheduler is dirty.
type schedNode struct {
	sys          *registeredSystem
	successors   []int
	inDegree     int
}

// Scheduler runs a set of registered systems each tick under a DAG derived
// from their declared access conflicts: conflict edges run from every
// earlier-registered system to every later one it conflicts with, a ready
// queue seeded with in-degree-zero roots, worker goroutines draining it,
// and a flush of every system's command buffer in execution order at the
// sync point.
type Scheduler struct {
	mu       sync.Mutex
	systems  []*registeredSystem
	nodes    []schedNode
	dirty    bool
	workers  int
	log      *hivelog.Logger
}

// NewScheduler builds a Scheduler. workers <= 0 selects a default sized
// from the detected logical CPU count.
func NewScheduler(log *hivelog.Logger, workers int) *Scheduler {
	if log == nil {
		log = hivelog.Nop()
	}
	if workers <= 0 {
		workers = defaultWorkerCount()
	}
	return &Scheduler{log: log, workers: workers, dirty: true}
}

func defaultWorkerCount() int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// AddSystem registers a system with its declared access, appended after
// every previously registered system. Marks the graph dirty for rebuild on
// the next RunAll.
func (s *Scheduler) AddSystem(name string, access Access, fn SystemFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systems = append(s.systems, &registeredSystem{
		name:   name,
		access: access,
		run:    fn,
		index:  len(s.systems),
		cmds:   NewCommandBuffer(),
	})
	s.dirty = true
}

// rebuild recomputes the conflict DAG; caller must hold s.mu.
func (s *Scheduler) rebuild() {
	nodes := make([]schedNode, len(s.systems))
	for i, sys := range s.systems {
		nodes[i] = schedNode{sys: sys}
	}
	for i := 0; i < len(s.systems); i++ {
		for j := i + 1; j < len(s.systems); j++ {
			if s.systems[i].access.conflicts(s.systems[j].access) {
				nodes[i].successors = append(nodes[i].successors, j)
				nodes[j].inDegree++
			}
		}
	}
	s.nodes = nodes
	s.dirty = false
}

// RunAll executes one tick: rebuilds the DAG if dirty, runs every system
// to completion respecting conflict order, flushes command buffers in
// execution order, and advances the world tick.
func (s *Scheduler) RunAll(ctx context.Context, w *World) error {
	s.mu.Lock()
	if s.dirty {
		s.rebuild()
	}
	nodes := s.nodes
	s.mu.Unlock()

	if len(nodes) == 0 {
		w.AdvanceTick()
		return nil
	}

	remaining := make([]int32, len(nodes))
	for i, n := range nodes {
		remaining[i] = int32(n.inDegree)
	}

	ready := make(chan int, len(nodes))
	var readyMu sync.Mutex
	completedOrder := make([]int, 0, len(nodes))

	for i, n := range nodes {
		if n.inDegree == 0 {
			ready <- i
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.workers)
	var orderMu sync.Mutex

	var dispatch func()
	dispatch = func() {
		for i := 0; i < len(nodes); i++ {
			select {
			case idx := <-ready:
				idx := idx
				sem <- struct{}{}
				g.Go(func() error {
					defer func() { <-sem }()
					node := nodes[idx]
					node.sys.run(w, node.sys.cmds)

					orderMu.Lock()
					completedOrder = append(completedOrder, idx)
					orderMu.Unlock()

					readyMu.Lock()
					for _, succ := range node.successors {
						remaining[succ]--
						if remaining[succ] == 0 {
							ready <- succ
						}
					}
					readyMu.Unlock()
					return nil
				})
			case <-gctx.Done():
				return
			}
		}
	}
	dispatch()

	if err := g.Wait(); err != nil {
		return err
	}

	orderMu.Lock()
	order := append([]int(nil), completedOrder...)
	orderMu.Unlock()
	for _, idx := range order {
		nodes[idx].sys.cmds.Flush(w)
	}
	w.AdvanceTick()
	return nil
}
