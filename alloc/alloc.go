// Package alloc implements the engine's custom memory allocators: a
// contract shared by all of them, plus linear, pool, buddy, and
// system-backed implementations, a debug allocation registry, and generic
// typed construct/destruct helpers.
//
// None of these allocators ever abort on failure; Allocate returns nil and
// the caller decides what to do. The debug registry records live
// allocations for leak and usage reports; it does not check alignment or
// detect double frees.
package alloc

import "unsafe"

// Allocator is the contract every allocator in this package satisfies.
// Allocate returns an unsafe.Pointer so typed helpers in typed.go can
// construct values in place without a second copy; size and alignment are
// always in bytes, alignment always a power of two.
type Allocator interface {
	// Allocate reserves size bytes aligned to alignment, returning nil on
	// failure. It never panics on exhaustion.
	Allocate(size, alignment uintptr) unsafe.Pointer

	// Deallocate releases a pointer previously returned by Allocate from
	// this same allocator. Passing nil is a no-op.
	Deallocate(ptr unsafe.Pointer)

	// UsedBytes reports bytes currently considered live by the allocator.
	UsedBytes() uintptr

	// TotalBytes reports the allocator's total addressable capacity.
	TotalBytes() uintptr

	// Name identifies the allocator instance for diagnostics.
	Name() string
}

// Resettable is implemented by allocators that support bulk reclamation
// (linear, pool). Not every Allocator supports it.
type Resettable interface {
	Reset()
}
