package alloc

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// System is the default, OS-backed allocator. Each allocation is a
// separately managed Go byte slice pinned for the lifetime of the
// allocation; it is meant as the process-wide fallback, not a
// high-throughput hot-path allocator. The inner map guards concurrent
// access with a single mutex.
type System struct {
	name string
	mu   sync.Mutex
	live map[unsafe.Pointer][]byte
	used int64
}

// NewSystem constructs a System allocator with the given diagnostic name.
func NewSystem(name string) *System {
	return &System{name: name, live: make(map[unsafe.Pointer][]byte)}
}

// Allocate reserves size bytes aligned to alignment by over-allocating and
// returning an aligned interior pointer; the backing slice is retained in
// live so the garbage collector does not reclaim it while still allocated.
func (s *System) Allocate(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	if alignment == 0 {
		alignment = 1
	}
	buf := make([]byte, size+alignment)
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (base + alignment - 1) &^ (alignment - 1)
	ptr := unsafe.Pointer(aligned)

	s.mu.Lock()
	// Kept with len == size so Deallocate subtracts exactly what was added;
	// the reslice still pins the whole backing array.
	s.live[ptr] = buf[:size]
	s.mu.Unlock()
	atomic.AddInt64(&s.used, int64(size))
	return ptr
}

// Deallocate releases a pointer previously returned by Allocate.
func (s *System) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	s.mu.Lock()
	buf, ok := s.live[ptr]
	if ok {
		delete(s.live, ptr)
	}
	s.mu.Unlock()
	if ok {
		atomic.AddInt64(&s.used, -int64(len(buf)))
	}
}

// UsedBytes reports the sum of requested sizes currently live.
func (s *System) UsedBytes() uintptr { return uintptr(atomic.LoadInt64(&s.used)) }

// TotalBytes returns zero: the system allocator has no fixed capacity.
func (s *System) TotalBytes() uintptr { return 0 }

// Name returns the allocator's diagnostic name.
func (s *System) Name() string { return s.name }

var _ Allocator = (*System)(nil)
