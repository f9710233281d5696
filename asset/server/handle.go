// Package server is the runtime asset server: it hands out ref-counted
// strong handles and dangling-detectable weak handles over blobs loaded
// from the CAS, caching decoded bytes behind an LRU.
package server

import (
	"sync/atomic"
)

// Handle is a raw, non-owning reference: a 32-bit slot index plus a
// 16-bit generation, mirroring the ECS entity handle's shape so that a
// stale handle is detectable rather than silently aliasing a reused
// slot.
type Handle struct {
	Index      uint32
	Generation uint16
}

// Invalid is the reserved null handle pattern.
var Invalid = Handle{Index: ^uint32(0), Generation: 0}

// StrongHandle owns a reference into the asset server: copying it (via
// Clone) increments the slot's refcount, and Release decrements it,
// freeing the slot once the count reaches zero. The zero StrongHandle is
// not valid; always obtain one from Server.Acquire or another handle's
// Clone.
type StrongHandle struct {
	raw    Handle
	server *Server
}

// Raw returns the underlying handle, usable to construct a WeakHandle or
// to compare identity.
func (h StrongHandle) Raw() Handle { return h.raw }

// Clone increments the slot's refcount and returns a second owning
// handle to the same asset. The atomic increment is made under the
// server's slot-table mutex, after the handle's generation is checked.
func (h StrongHandle) Clone() StrongHandle {
	if h.server != nil {
		h.server.incRef(h.raw)
	}
	return h
}

// Release decrements the slot's refcount, freeing and recycling the slot
// if it reaches zero. Calling Release more than once per Acquire/Clone
// is a contract violation (double free), not a recoverable error.
func (h StrongHandle) Release() {
	if h.server != nil {
		h.server.decRef(h.raw)
	}
}

// Weak returns a non-owning handle that must be resolved through the
// server before use, since the slot may be freed out from under it.
func (h StrongHandle) Weak() WeakHandle { return WeakHandle{raw: h.raw} }

// Bytes returns the asset's decoded content. Valid only while the
// StrongHandle's refcount has not dropped to zero.
func (h StrongHandle) Bytes() []byte {
	if h.server == nil {
		return nil
	}
	return h.server.bytesFor(h.raw)
}

// WeakHandle is a copyable, non-owning reference. It does not
// participate in refcounting and may outlive the asset it refers to;
// Resolve consults the server's generation table to detect that case.
type WeakHandle struct {
	raw Handle
}

// Raw returns the underlying handle.
func (h WeakHandle) Raw() Handle { return h.raw }

// Resolve upgrades the weak handle to an owning StrongHandle if the slot
// is still alive and its generation matches, incrementing the refcount
// on success.
func (h WeakHandle) Resolve(s *Server) (StrongHandle, bool) {
	return s.resolve(h.raw)
}

// refCount is a thin wrapper so the zero value is a valid, zeroed
// refcount without needing an explicit constructor.
type refCount struct{ n atomic.Int32 }
