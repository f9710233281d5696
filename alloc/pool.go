package alloc

import (
	"sync"
	"unsafe"
)

// Pool is a fixed-capacity slab allocator for cells of a single size. The
// free list is threaded through unused cells: the first machine word of a
// free cell stores the address of the next free cell (or zero for end of
// list). Allocate/Deallocate are both O(1).
type Pool struct {
	mu       sync.Mutex
	name     string
	cellSize uintptr
	slab     []byte
	base     uintptr
	free     uintptr // address of head free cell, 0 if empty
	used     int
	capacity int
}

const minCellSize = unsafe.Sizeof(uintptr(0))

// NewPool builds a pool of capacity cells, each large enough to hold
// cellSize bytes (rounded up to at least one machine word so the free list
// pointer always fits).
func NewPool(name string, cellSize uintptr, capacity int) *Pool {
	if cellSize < minCellSize {
		cellSize = minCellSize
	}
	p := &Pool{
		name:     name,
		cellSize: cellSize,
		capacity: capacity,
		slab:     make([]byte, cellSize*uintptr(capacity)),
	}
	if capacity > 0 {
		p.base = uintptr(unsafe.Pointer(&p.slab[0]))
	}
	p.rebuildFreeList()
	return p
}

// rebuildFreeList threads every cell onto the free list in index order;
// callers must hold mu.
func (p *Pool) rebuildFreeList() {
	p.free = 0
	for i := p.capacity - 1; i >= 0; i-- {
		addr := p.base + uintptr(i)*p.cellSize
		next := p.free
		*(*uintptr)(unsafe.Pointer(addr)) = next
		p.free = addr
	}
	p.used = 0
}

// Allocate pops a cell from the free list, or returns nil if exhausted.
func (p *Pool) Allocate(size, alignment uintptr) unsafe.Pointer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.free == 0 {
		return nil
	}
	addr := p.free
	p.free = *(*uintptr)(unsafe.Pointer(addr))
	p.used++
	return unsafe.Pointer(addr)
}

// Deallocate pushes the cell back onto the free list. Passing nil is a
// no-op.
func (p *Pool) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	addr := uintptr(ptr)
	*(*uintptr)(unsafe.Pointer(addr)) = p.free
	p.free = addr
	p.used--
}

// UsedBytes reports the number of live cells times the cell size.
func (p *Pool) UsedBytes() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uintptr(p.used) * p.cellSize
}

// TotalBytes reports the slab's total capacity in bytes.
func (p *Pool) TotalBytes() uintptr { return uintptr(p.capacity) * p.cellSize }

// Name returns the allocator's diagnostic name.
func (p *Pool) Name() string { return p.name }

// Reset rebuilds the free list in index order, discarding all live cells.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rebuildFreeList()
}

// CellSize reports the size of each pool cell.
func (p *Pool) CellSize() uintptr { return p.cellSize }

// Capacity reports the number of cells the pool was built with.
func (p *Pool) Capacity() int { return p.capacity }

var _ Allocator = (*Pool)(nil)
var _ Resettable = (*Pool)(nil)
