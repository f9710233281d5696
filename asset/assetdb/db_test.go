package assetdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hive-engine/hive/asset/hash"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.db")
	db, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutAndGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	rec := Record{
		UUID:            uuid.New(),
		Path:            "textures/brick.png",
		Type:            "Texture",
		SourceHash:      hash.FromBytes([]byte("source")),
		ImporterVersion: 1,
		ImportedAt:      time.Unix(1000, 0).UTC(),
	}
	if err := db.Put(rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := db.Get(rec.UUID)
	if !ok {
		t.Fatal("expected record to be found by uuid")
	}
	if got.Path != rec.Path || got.SourceHash != rec.SourceHash {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}

	byPath, ok := db.GetByPath(rec.Path)
	if !ok || byPath.UUID != rec.UUID {
		t.Fatalf("expected path index to resolve to %v, got %+v %v", rec.UUID, byPath, ok)
	}
}

func TestPutRejectsCyclicDependency(t *testing.T) {
	db := openTestDB(t)
	a := Record{UUID: uuid.New(), Path: "a"}
	b := Record{UUID: uuid.New(), Path: "b", Deps: []Dependency{{To: a.UUID, Kind: DepHard}}}

	if err := db.Put(a); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := db.Put(b); err != nil {
		t.Fatalf("Put b: %v", err)
	}

	a.Deps = []Dependency{{To: b.UUID, Kind: DepHard}}
	if err := db.Put(a); err != ErrDependencyCycle {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestNeedsReimportDetectsStaleness(t *testing.T) {
	h1 := hash.FromBytes([]byte("v1"))
	h2 := hash.FromBytes([]byte("v2"))
	rec := Record{ImporterVersion: 2, SourceHash: h1}

	if rec.NeedsReimport(2, h1) {
		t.Fatal("expected up-to-date record to not need reimport")
	}
	if !rec.NeedsReimport(3, h1) {
		t.Fatal("expected importer version bump to require reimport")
	}
	if !rec.NeedsReimport(2, h2) {
		t.Fatal("expected source hash change to require reimport")
	}
}

func TestReopenPreservesGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	db, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	a := Record{UUID: uuid.New(), Path: "a"}
	b := Record{UUID: uuid.New(), Path: "b", Deps: []Dependency{{To: a.UUID, Kind: DepHard}}}
	must(t, db.Put(a))
	must(t, db.Put(b))
	db.Close()

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if err := reopened.Graph().AddEdge(a.UUID, b.UUID, DepHard); err != ErrDependencyCycle {
		t.Fatalf("expected reloaded graph to still reject the closing edge, got %v", err)
	}
}
