package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/cookpipe"
	"github.com/hive-engine/hive/asset/hash"
	"github.com/hive-engine/hive/asset/importpipe"
	"github.com/hive-engine/hive/asset/vfs"
)

type upperImporter struct{}

func (upperImporter) Name() string         { return "upper" }
func (upperImporter) Version() int         { return 1 }
func (upperImporter) TargetType() string   { return "Text" }
func (upperImporter) Extensions() []string { return []string{"txt"} }
func (upperImporter) Import(source []byte, ctx *importpipe.ImportContext) importpipe.Result {
	return importpipe.Result{Success: true, Intermediate: bytes.ToUpper(source)}
}

type reverseCooker struct{}

func (reverseCooker) TargetType() string { return "Text" }
func (reverseCooker) Version() int       { return 1 }
func (reverseCooker) Cook(intermediate []byte, ctx cookpipe.CookContext) ([]byte, error) {
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
	return m.blobs[h], nil
}

func TestHotReloadCycleReimportsAndRecooks(t *testing.T) {
	srcDir := t.TempDir()
	sourcePath := filepath.Join(srcDir, "a.txt")
	if err := os.WriteFile(sourcePath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	v := vfs.New()
	v.Mount("", vfs.NewDiskSource(srcDir), 0)

	importReg := importpipe.NewRegistry()
	importReg.Register(upperImporter{})

	db, err := assetdb.Open(filepath.Join(t.TempDir(), "assets.db"), nil)
	if err != nil {
		t.Fatalf("assetdb.Open: %v", err)
	}
	defer db.Close()

	blobs := newMemBlobs()
	importer := importpipe.New(v, importReg, blobs, db, nil)

	cache, err := cookpipe.OpenCache(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()
	cookReg := cookpipe.NewRegistry()
	cookReg.Register(reverseCooker{})
	cooker := cookpipe.New(db, blobs, cache, cookReg, nil)

	// Seed: import and cook the asset as it exists before hot reload starts.
	seeded := importer.ImportOne("a.txt", nil)
	if seeded.Err != nil {
		t.Fatalf("seed import: %v", seeded.Err)
	}
	if _, err := cooker.CookAll(context.Background(), []uuid.UUID{seeded.UUID}, "pc", 1); err != nil {
		t.Fatalf("seed cook: %v", err)
	}

	watcher := NewPollingWatcher(0)
	if err := watcher.AddDirectory(srcDir); err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}
	// Baseline poll absorbs the pre-existing file as a synthetic Created
	// event; since content is unchanged, the reimport is a no-op skip.
	mgr := NewManager(watcher, db, importer, cooker, "pc", nil)
	if _, err := mgr.PollAndReload(context.Background(), nil); err != nil {
		t.Fatalf("baseline PollAndReload: %v", err)
	}

	if err := os.WriteFile(sourcePath, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("modify source: %v", err)
	}
	reloaded, err := mgr.PollAndReload(context.Background(), nil)
	if err != nil {
		t.Fatalf("PollAndReload after modify: %v", err)
	}
	if len(reloaded) != 1 {
		t.Fatalf("expected exactly one reloaded asset, got %v", reloaded)
	}

	rec, ok := db.Get(reloaded[0])
	if !ok {
		t.Fatal("expected reloaded asset to still be recorded")
	}
	if rec.SourceHash != hash.FromBytes([]byte("hello world")) {
		t.Fatal("expected source hash to reflect the modified content")
	}
}
