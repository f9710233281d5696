package alloc

import (
	"fmt"
	"sort"
	"time"
	"unsafe"

	"github.com/anacrolix/sync"
	"github.com/go-stack/stack"
)

// DebugRecord captures what the debug registry knows about one live
// allocation.
type DebugRecord struct {
	Size      uintptr
	Alignment uintptr
	Timestamp time.Time
	CallSite  string
	Allocator string
}

// DebugRegistry is a concurrent ledger of live allocations keyed by
// address, wrapping an underlying Allocator. It exists purely for
// diagnostics and leak reporting; production builds can skip wrapping
// allocators in it entirely — a construction-time choice rather than a
// build tag, since Go has no preprocessor.
type DebugRegistry struct {
	mu      sync.Mutex
	inner   Allocator
	records map[unsafe.Pointer]DebugRecord
	peak    uintptr
	total   uintptr // cumulative bytes ever allocated
}

// NewDebugRegistry wraps inner, an existing Allocator, with allocation
// tracking.
func NewDebugRegistry(inner Allocator) *DebugRegistry {
	return &DebugRegistry{inner: inner, records: make(map[unsafe.Pointer]DebugRecord)}
}

// Allocate delegates to the wrapped allocator and records the result.
func (d *DebugRegistry) Allocate(size, alignment uintptr) unsafe.Pointer {
	ptr := d.inner.Allocate(size, alignment)
	if ptr == nil {
		return nil
	}
	site := ""
	if cs := stack.Caller(1); cs != nil {
		site = fmt.Sprintf("%+v", cs)
	}
	d.mu.Lock()
	d.records[ptr] = DebugRecord{
		Size:      size,
		Alignment: alignment,
		Timestamp: time.Now(),
		CallSite:  site,
		Allocator: d.inner.Name(),
	}
	used := d.inner.UsedBytes()
	if used > d.peak {
		d.peak = used
	}
	d.total += size
	d.mu.Unlock()
	return ptr
}

// Deallocate delegates to the wrapped allocator and drops the record.
func (d *DebugRegistry) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	d.mu.Lock()
	delete(d.records, ptr)
	d.mu.Unlock()
	d.inner.Deallocate(ptr)
}

// UsedBytes delegates to the wrapped allocator.
func (d *DebugRegistry) UsedBytes() uintptr { return d.inner.UsedBytes() }

// TotalBytes delegates to the wrapped allocator.
func (d *DebugRegistry) TotalBytes() uintptr { return d.inner.TotalBytes() }

// Name delegates to the wrapped allocator.
func (d *DebugRegistry) Name() string { return d.inner.Name() }

// PeakBytes reports the highest UsedBytes value observed since construction.
func (d *DebugRegistry) PeakBytes() uintptr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peak
}

// TotalAllocated reports the cumulative bytes ever requested, including
// since-freed allocations.
func (d *DebugRegistry) TotalAllocated() uintptr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// LiveCount reports the number of allocations currently tracked as live.
func (d *DebugRegistry) LiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// LeakReport returns every record still live, sorted by call site for
// stable, readable shutdown diagnostics.
func (d *DebugRegistry) LeakReport() []DebugRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DebugRecord, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallSite < out[j].CallSite })
	return out
}

var _ Allocator = (*DebugRegistry)(nil)
