package cas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hive-engine/hive/asset/hash"
)

func TestStoreDedupAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h1, err := s.Store([]byte("hello"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	h2, err := s.Store([]byte("hello"))
	if err != nil {
		t.Fatalf("Store (second): %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical hash for identical content, got %v != %v", h1, h2)
	}

	data, ok := s.Load(h1)
	if !ok || string(data) != "hello" {
		t.Fatalf("Load = %q, %v", data, ok)
	}
	if !s.Contains(h1) {
		t.Fatal("expected Contains to report true")
	}

	var fileCount int
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			fileCount++
		}
		return nil
	})
	if fileCount != 1 {
		t.Fatalf("expected exactly one file on disk, got %d", fileCount)
	}
}

func TestLoadMissingReturnsFalse(t *testing.T) {
	s, _ := New(t.TempDir(), nil)
	_, ok := s.Load(hash.FromBytes([]byte("never stored")))
	if ok {
		t.Fatal("expected Load of missing hash to report false")
	}
}

func TestGCRemovesUnreferencedBlobs(t *testing.T) {
	s, _ := New(t.TempDir(), nil)
	keep, err := s.Store([]byte("keep me"))
	if err != nil {
		t.Fatal(err)
	}
	drop, err := s.Store([]byte("drop me"))
	if err != nil {
		t.Fatal(err)
	}

	stats, err := s.GC(map[hash.ContentHash]struct{}{keep: {}})
	if err != nil {
		t.Fatalf("GC: %v", err)
	}
	if stats.Removed != 1 {
		t.Fatalf("expected 1 blob removed, got %d", stats.Removed)
	}
	if !s.Contains(keep) {
		t.Fatal("expected kept blob to survive GC")
	}
	if s.Contains(drop) {
		t.Fatal("expected dropped blob to be removed by GC")
	}
}
