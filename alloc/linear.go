package alloc

import (
	"sync"
	"unsafe"

	"github.com/hive-engine/hive/internal/mathutil"
)

// Linear is a bump allocator over a single contiguous backing block.
// Allocate advances a watermark after padding to the requested alignment;
// Deallocate is a no-op. Mark/ResetToMark gives LIFO checkpointing; Reset
// rewinds the whole block.
type Linear struct {
	mu     sync.Mutex
	name   string
	buf    []byte
	base   uintptr
	offset uintptr
}

// NewLinear allocates a capacity-byte backing block and returns a Linear
// allocator over it.
func NewLinear(name string, capacity uintptr) *Linear {
	buf := make([]byte, capacity)
	base := uintptr(0)
	if len(buf) > 0 {
		base = uintptr(unsafe.Pointer(&buf[0]))
	}
	return &Linear{name: name, buf: buf, base: base}
}

// Allocate reserves size bytes aligned to alignment, or returns nil if the
// remaining capacity cannot satisfy the request.
func (l *Linear) Allocate(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	if alignment == 0 {
		alignment = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.base + l.offset
	aligned := mathutil.AlignUp(current, alignment)
	padding := aligned - current
	if l.offset+padding+size > uintptr(len(l.buf)) {
		return nil
	}
	l.offset += padding + size
	return unsafe.Pointer(aligned)
}

// Deallocate is a no-op: the linear allocator only reclaims via Mark/Reset.
func (l *Linear) Deallocate(unsafe.Pointer) {}

// UsedBytes reports the current watermark offset.
func (l *Linear) UsedBytes() uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// TotalBytes reports the backing block's capacity.
func (l *Linear) TotalBytes() uintptr { return uintptr(len(l.buf)) }

// Name returns the allocator's diagnostic name.
func (l *Linear) Name() string { return l.name }

// Mark returns a checkpoint that ResetToMark can rewind to.
func (l *Linear) Mark() uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// ResetToMark rewinds the watermark to a previously captured Mark. Marks
// must be used LIFO; rewinding past a later allocation invalidates it.
func (l *Linear) ResetToMark(mark uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mark > l.offset {
		return
	}
	l.offset = mark
}

// Reset rewinds the entire block, as if newly constructed.
func (l *Linear) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offset = 0
}

var _ Allocator = (*Linear)(nil)
var _ Resettable = (*Linear)(nil)
