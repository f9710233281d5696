package alloc

import "unsafe"

// New constructs a *T from a, zero-initialized, returning nil if the
// allocator is exhausted. Callers must pair every non-nil New[T] with a
// Delete[T] on the same allocator to avoid leaking the underlying region
// (for pool/buddy/system allocators; linear allocators reclaim in bulk).
func New[T any](a Allocator) *T {
	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)
	ptr := a.Allocate(size, align)
	if ptr == nil {
		return nil
	}
	v := (*T)(ptr)
	*v = zero
	return v
}

// Delete releases a value previously constructed with New[T] on the same
// allocator. Passing nil is a no-op.
func Delete[T any](a Allocator, v *T) {
	if v == nil {
		return
	}
	a.Deallocate(unsafe.Pointer(v))
}
