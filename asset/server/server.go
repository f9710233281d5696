package server

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hive-engine/hive/asset/hash"
	"github.com/hive-engine/hive/internal/hivelog"
)

// BlobLoader is the subset of the CAS store the asset server needs: a
// content-hash-addressed byte read.
type BlobLoader interface {
	Load(h hash.ContentHash) ([]byte, error)
}

type slot struct {
	generation uint16
	refcount   refCount
	hash       hash.ContentHash
	alive      bool
}

// Server hands out ref-counted handles over CAS-backed blobs. The slot
// table is mutex-guarded. Refcounts are atomics, but cloning or releasing
// a handle also takes that mutex to check the handle's generation, so
// handle copy and drop are not lock-free.
type Server struct {
	mu        sync.Mutex
	slots     []slot
	freeList  []uint32
	byHash    map[hash.ContentHash]uint32
	cas       BlobLoader
	blobCache *lru.Cache[hash.ContentHash, []byte]
	log       *hivelog.Logger
}

// New returns a Server loading blobs from cas, caching up to
// cacheCapacity decoded blobs.
func New(cas BlobLoader, cacheCapacity int, log *hivelog.Logger) (*Server, error) {
	if log == nil {
		log = hivelog.Nop()
	}
	cache, err := lru.New[hash.ContentHash, []byte](cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("server: init blob cache: %w", err)
	}
	return &Server{byHash: make(map[hash.ContentHash]uint32), cas: cas, blobCache: cache, log: log}, nil
}

// Acquire returns a strong handle to the asset identified by h, loading
// it from the CAS (or the blob cache) on first acquisition and sharing
// the same slot across concurrent acquisitions of the same hash.
func (s *Server) Acquire(h hash.ContentHash) (StrongHandle, error) {
	s.mu.Lock()
	if idx, ok := s.byHash[h]; ok && s.slots[idx].alive {
		s.slots[idx].refcount.n.Add(1)
		raw := Handle{Index: idx, Generation: s.slots[idx].generation}
		s.mu.Unlock()
		return StrongHandle{raw: raw, server: s}, nil
	}
	s.mu.Unlock()

	if _, ok := s.blobCache.Get(h); !ok {
		data, err := s.cas.Load(h)
		if err != nil {
			return StrongHandle{}, fmt.Errorf("server: load %s: %w", h, err)
		}
		s.blobCache.Add(h, data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: another goroutine may have raced us to create the slot.
	if idx, ok := s.byHash[h]; ok && s.slots[idx].alive {
		s.slots[idx].refcount.n.Add(1)
		raw := Handle{Index: idx, Generation: s.slots[idx].generation}
		return StrongHandle{raw: raw, server: s}, nil
	}

	idx := s.allocSlot(h)
	raw := Handle{Index: idx, Generation: s.slots[idx].generation}
	return StrongHandle{raw: raw, server: s}, nil
}

func (s *Server) allocSlot(h hash.ContentHash) uint32 {
	var idx uint32
	if n := len(s.freeList); n > 0 {
		idx = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.slots[idx].hash = h
		s.slots[idx].alive = true
		s.slots[idx].refcount.n.Store(1)
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{hash: h, alive: true})
		s.slots[idx].refcount.n.Store(1)
	}
	s.byHash[h] = idx
	return idx
}

func (s *Server) incRef(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	valid := int(h.Index) < len(s.slots) && s.slots[h.Index].alive && s.slots[h.Index].generation == h.Generation
	if valid {
		s.slots[h.Index].refcount.n.Add(1)
	}
}

func (s *Server) decRef(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(h.Index) >= len(s.slots) || !s.slots[h.Index].alive || s.slots[h.Index].generation != h.Generation {
		return
	}
	remaining := s.slots[h.Index].refcount.n.Add(-1)
	if remaining > 0 {
		return
	}
	delete(s.byHash, s.slots[h.Index].hash)
	s.slots[h.Index].alive = false
	s.slots[h.Index].generation++
	s.freeList = append(s.freeList, h.Index)
}

func (s *Server) resolve(h Handle) (StrongHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(h.Index) >= len(s.slots) || !s.slots[h.Index].alive || s.slots[h.Index].generation != h.Generation {
		return StrongHandle{}, false
	}
	s.slots[h.Index].refcount.n.Add(1)
	return StrongHandle{raw: h, server: s}, true
}

func (s *Server) bytesFor(h Handle) []byte {
	s.mu.Lock()
	if int(h.Index) >= len(s.slots) || !s.slots[h.Index].alive || s.slots[h.Index].generation != h.Generation {
		s.mu.Unlock()
		return nil
	}
	contentHash := s.slots[h.Index].hash
	s.mu.Unlock()

	data, ok := s.blobCache.Get(contentHash)
	if !ok {
		return nil
	}
	return data
}

// RefCount returns the current refcount for a handle, for tests and
// diagnostics.
func (s *Server) RefCount(h Handle) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(h.Index) >= len(s.slots) || s.slots[h.Index].generation != h.Generation {
		return 0
	}
	return s.slots[h.Index].refcount.n.Load()
}
