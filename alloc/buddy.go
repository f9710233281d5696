package alloc

import (
	"sync"
	"unsafe"

	"github.com/hive-engine/hive/internal/mathutil"
)

// Buddy is a power-of-two segregated free-list allocator over a single
// contiguous region sized 2^k. Allocate rounds the request up to the next
// power of two and splits larger free blocks as needed; Deallocate
// coalesces a freed block with its buddy recursively.
type Buddy struct {
	mu       sync.Mutex
	name     string
	region   []byte
	base     uintptr
	minOrder int
	maxOrder int
	free     [][]uintptr     // free[order] = list of block offsets (relative to base)
	orderOf  map[uintptr]int // offset -> order, for currently allocated blocks
	used     uintptr
}

// NewBuddy builds a buddy allocator whose region size is 2^maxOrder bytes
// and whose minimum split size is 2^minOrder bytes.
func NewBuddy(name string, minOrder, maxOrder int) *Buddy {
	if minOrder < 0 {
		minOrder = 0
	}
	if maxOrder < minOrder {
		maxOrder = minOrder
	}
	size := uintptr(1) << uint(maxOrder)
	region := make([]byte, size)
	base := uintptr(0)
	if len(region) > 0 {
		base = uintptr(unsafe.Pointer(&region[0]))
	}
	b := &Buddy{
		name:     name,
		region:   region,
		base:     base,
		minOrder: minOrder,
		maxOrder: maxOrder,
		free:     make([][]uintptr, maxOrder+1),
		orderOf:  make(map[uintptr]int),
	}
	b.free[maxOrder] = append(b.free[maxOrder], 0)
	return b
}

// orderFor picks the smallest order whose block size covers both size and
// alignment. Widening the block to at least alignment makes every block's
// offset within the region a multiple of alignment, so the returned
// address is alignment-aligned whenever the region's own base address is
// — Buddy doesn't control or verify that base alignment itself (the
// region is a plain []byte), so this is a best-effort honoring of the
// Allocator contract, not a hard guarantee for arbitrary alignments.
func (b *Buddy) orderFor(size, alignment uintptr) int {
	if size < uintptr(1)<<uint(b.minOrder) {
		size = uintptr(1) << uint(b.minOrder)
	}
	if alignment > size {
		size = alignment
	}
	rounded := mathutil.NextPowerOfTwo(size)
	return mathutil.Log2Floor(rounded)
}

// popFree removes and returns a free block offset at the given order, or
// (0, false) if none is free.
func (b *Buddy) popFree(order int) (uintptr, bool) {
	list := b.free[order]
	if len(list) == 0 {
		return 0, false
	}
	off := list[len(list)-1]
	b.free[order] = list[:len(list)-1]
	return off, true
}

// split recursively breaks a free block at fromOrder down to target,
// returning an offset at target order. fromOrder's free list must already
// hold the block being split (it is popped by the caller).
func (b *Buddy) split(off uintptr, fromOrder, target int) uintptr {
	for fromOrder > target {
		fromOrder--
		buddyOff := off + (uintptr(1) << uint(fromOrder))
		b.free[fromOrder] = append(b.free[fromOrder], buddyOff)
	}
	return off
}

// Allocate reserves the smallest power-of-two block that satisfies size,
// returning nil if the region has no sufficiently large free block.
func (b *Buddy) Allocate(size, alignment uintptr) unsafe.Pointer {
	if alignment == 0 {
		alignment = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.orderFor(size, alignment)
	if target > b.maxOrder {
		return nil
	}
	order := target
	for order <= b.maxOrder {
		if off, ok := b.popFree(order); ok {
			finalOff := b.split(off, order, target)
			b.orderOf[finalOff] = target
			b.used += uintptr(1) << uint(target)
			return unsafe.Pointer(b.base + finalOff)
		}
		order++
	}
	return nil
}

// Deallocate frees a block and coalesces it with its buddy as far up the
// order hierarchy as possible.
func (b *Buddy) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	off := uintptr(ptr) - b.base
	order, ok := b.orderOf[off]
	if !ok {
		return
	}
	delete(b.orderOf, off)
	b.used -= uintptr(1) << uint(order)

	for order < b.maxOrder {
		buddyOff := off ^ (uintptr(1) << uint(order))
		if !b.removeFree(order, buddyOff) {
			break
		}
		if buddyOff < off {
			off = buddyOff
		}
		order++
	}
	b.free[order] = append(b.free[order], off)
}

// removeFree removes offset from the free list at order if present,
// reporting whether it found and removed it.
func (b *Buddy) removeFree(order int, offset uintptr) bool {
	list := b.free[order]
	for i, o := range list {
		if o == offset {
			list[i] = list[len(list)-1]
			b.free[order] = list[:len(list)-1]
			return true
		}
	}
	return false
}

// UsedBytes reports bytes currently allocated (rounded up to order sizes).
func (b *Buddy) UsedBytes() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// TotalBytes reports the region's total size, 2^maxOrder.
func (b *Buddy) TotalBytes() uintptr { return uintptr(len(b.region)) }

// Name returns the allocator's diagnostic name.
func (b *Buddy) Name() string { return b.name }

var _ Allocator = (*Buddy)(nil)
