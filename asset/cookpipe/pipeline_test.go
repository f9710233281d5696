package cookpipe

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/hash"
)

// reverseCooker cooks by reversing the intermediate bytes.
type reverseCooker struct{ version int }

func (r *reverseCooker) TargetType() string { return "Text" }
func (r *reverseCooker) Version() int       { return r.version }
func (r *reverseCooker) Cook(intermediate []byte, ctx CookContext) ([]byte, error) {
	out := make([]byte, len(intermediate))
	for i, b := range intermediate {
		out[len(intermediate)-1-i] = b
	}
	return out, nil
}

type memBlobs struct{ blobs map[hash.ContentHash][]byte }

func newMemBlobs() *memBlobs { return &memBlobs{blobs: make(map[hash.ContentHash][]byte)} }

func (m *memBlobs) Store(data []byte) (hash.ContentHash, error) {
	h := hash.FromBytes(data)
	m.blobs[h] = append([]byte(nil), data...)
	return h, nil
}

func (m *memBlobs) Load(h hash.ContentHash) ([]byte, error) {
	data, ok := m.blobs[h]
	if !ok {
		return nil, errNotFound
	}
	return data, nil
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (e *notFoundErr) Error() string { return "memBlobs: not found" }

func setup(t *testing.T) (*Pipeline, *assetdb.DB, *memBlobs) {
	t.Helper()
	db, err := assetdb.Open(filepath.Join(t.TempDir(), "assets.db"), nil)
	if err != nil {
		t.Fatalf("assetdb.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	blobs := newMemBlobs()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	registry := NewRegistry()
	registry.Register(&reverseCooker{version: 1})

	p := New(db, blobs, cache, registry, nil)
	return p, db, blobs
}

func putRecord(t *testing.T, db *assetdb.DB, blobs *memBlobs, content string, deps []uuid.UUID) uuid.UUID {
	t.Helper()
	h, err := blobs.Store([]byte(content))
	if err != nil {
		t.Fatalf("store intermediate: %v", err)
	}
	edges := make([]assetdb.Dependency, len(deps))
	for i, dep := range deps {
		edges[i] = assetdb.Dependency{To: dep, Kind: assetdb.DepHard}
	}
	rec := assetdb.Record{
		UUID:             uuid.New(),
		Path:             content,
		Type:             "Text",
		IntermediateHash: h,
		ImporterVersion:  1,
		Deps:             edges,
		ImportedAt:       time.Now(),
	}
	if err := db.Put(rec); err != nil {
		t.Fatalf("db.Put: %v", err)
	}
	return rec.UUID
}

func TestCookAllCooksInDependencyOrder(t *testing.T) {
	p, db, blobs := setup(t)
	base := putRecord(t, db, blobs, "base", nil)
	derived := putRecord(t, db, blobs, "derived", []uuid.UUID{base})

	result, err := p.CookAll(context.Background(), []uuid.UUID{derived, base}, "pc", 2)
	if err != nil {
		t.Fatalf("CookAll: %v", err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("unexpected failures: %+v", result.Failed)
	}
	if len(result.Cooked) != 2 {
		t.Fatalf("expected 2 cooked outcomes, got %d", len(result.Cooked))
	}

	cooked, err := blobs.Load(mustFind(result, base))
	if err != nil {
		t.Fatalf("load cooked base: %v", err)
	}
	if !bytes.Equal(cooked, []byte("esab")) {
		t.Fatalf("expected reversed bytes, got %q", cooked)
	}
}

func TestCookAllSecondRunIsAllCacheHits(t *testing.T) {
	p, db, blobs := setup(t)
	id := putRecord(t, db, blobs, "content", nil)

	first, err := p.CookAll(context.Background(), []uuid.UUID{id}, "pc", 1)
	if err != nil || len(first.Failed) != 0 {
		t.Fatalf("first CookAll: %v %+v", err, first.Failed)
	}
	if first.CacheHit != 0 {
		t.Fatal("expected first run to not hit cache")
	}

	second, err := p.CookAll(context.Background(), []uuid.UUID{id}, "pc", 1)
	if err != nil || len(second.Failed) != 0 {
		t.Fatalf("second CookAll: %v %+v", err, second.Failed)
	}
	if second.CacheHit != 1 {
		t.Fatalf("expected second run to be a cache hit, got %+v", second)
	}
}

func TestInvalidateCascadeForcesRecook(t *testing.T) {
	p, db, blobs := setup(t)
	base := putRecord(t, db, blobs, "base", nil)
	derived := putRecord(t, db, blobs, "derived", []uuid.UUID{base})

	if _, err := p.CookAll(context.Background(), []uuid.UUID{derived, base}, "pc", 2); err != nil {
		t.Fatalf("initial CookAll: %v", err)
	}

	invalidated, err := p.InvalidateCascade(base, "pc")
	if err != nil {
		t.Fatalf("InvalidateCascade: %v", err)
	}
	found := false
	for _, id := range invalidated {
		if id == derived {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected derived to be invalidated, got %v", invalidated)
	}

	result, err := p.CookAll(context.Background(), []uuid.UUID{derived, base}, "pc", 2)
	if err != nil {
		t.Fatalf("recook: %v", err)
	}
	if result.CacheHit != 0 {
		t.Fatalf("expected both to recook after cascade invalidation, got %d cache hits", result.CacheHit)
	}
}

func TestCookAllResultErrSummarizesFailures(t *testing.T) {
	p, db, blobs := setup(t)
	h, err := blobs.Store([]byte("mesh bytes"))
	require.NoError(t, err)
	rec := assetdb.Record{UUID: uuid.New(), Path: "unsupported", Type: "Mesh", IntermediateHash: h, ImportedAt: time.Now()}
	require.NoError(t, db.Put(rec))

	result, err := p.CookAll(context.Background(), []uuid.UUID{rec.UUID}, "pc", 1)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)

	combined := result.Err()
	require.Error(t, combined)
	require.Contains(t, combined.Error(), "1 of 1 assets failed")
}

func mustFind(result CookAllResult, id uuid.UUID) hash.ContentHash {
	for _, outcome := range result.Cooked {
		if outcome.UUID == id {
			return outcome.CookedHash
		}
	}
	return hash.ContentHash{}
}
