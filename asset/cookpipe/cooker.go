// Package cookpipe transforms imported intermediate blobs into
// platform-specific cooked blobs, with a cook-key cache and
// dependency-cascade invalidation.
//
// Grounded on Nectar/include/nectar/pipeline/cooker.h and
// cook_pipeline.h.
package cookpipe

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/hive-engine/hive/asset/hash"
)

// CookContext carries per-cook parameters. Cookers allocate via ordinary
// Go slices rather than a dedicated allocator handle; platform is what
// actually varies cook output.
type CookContext struct {
	Platform string
}

// Cooker transforms one asset's intermediate bytes into cooked bytes for
// a platform. TargetType selects the cooker in the Registry; Version is
// part of the cook key and must be bumped whenever cooked output format
// changes.
type Cooker interface {
	TargetType() string
	Version() int
	Cook(intermediate []byte, ctx CookContext) ([]byte, error)
}

// Registry maps asset type names to the cooker responsible for them.
type Registry struct {
	byType map[string]Cooker
}

// NewRegistry returns an empty cooker registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Cooker)}
}

// Register installs cooker for its TargetType, overwriting any prior
// registration.
func (r *Registry) Register(cooker Cooker) {
	r.byType[cooker.TargetType()] = cooker
}

// Lookup returns the cooker registered for typeName, if any.
func (r *Registry) Lookup(typeName string) (Cooker, bool) {
	c, ok := r.byType[typeName]
	return c, ok
}

// ErrNoCooker is returned when no cooker is registered for an asset's
// type.
var ErrNoCooker = fmt.Errorf("cookpipe: no cooker registered for type")

// CookKey identifies one cook invocation's inputs: the intermediate
// hash, cooker version, platform, and the sorted cooked hashes of the
// asset's direct Hard and Build dependencies that were cooked earlier in
// the same CookAll batch. Deeper (transitive) dependencies are not in the
// key; a change below a direct dependency reaches it only through that
// dependency's own cooked hash.
type CookKey struct {
	IntermediateHash hash.ContentHash
	CookerVersion    int
	Platform         string
	DepCookedHashes  []hash.ContentHash
}

// Hash collapses the key into a single uint64 suitable for cache lookup
// and comparison, grounded on the same xxhash the ECS archetype index
// uses for its own signature hashing.
func (k CookKey) Hash() uint64 {
	sorted := append([]hash.ContentHash(nil), k.DepCookedHashes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	d := xxhash.New()
	intermediateBytes := k.IntermediateHash.Bytes()
	d.Write(intermediateBytes[:])
	var versionBuf [8]byte
	putUint64(versionBuf[:], uint64(k.CookerVersion))
	d.Write(versionBuf[:])
	d.Write([]byte(k.Platform))
	for _, dep := range sorted {
		depBytes := dep.Bytes()
		d.Write(depBytes[:])
	}
	return d.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// CacheEntry is what the cache stores per (asset uuid, platform).
type CacheEntry struct {
	AssetUUID  uuid.UUID
	Platform   string
	Key        uint64
	CookedHash hash.ContentHash
	Version    int
}
