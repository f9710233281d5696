// Package cas implements the content-addressed blob store: a sharded
// on-disk layout keyed by the content hash of each stored blob, with
// atomic write-then-rename and an explicit GC sweep.
//
// Grounded on Nectar/include/nectar/cas/cas_store.h: two-level hex-prefix
// sharded directories, dedup-on-store, and "removed only by explicit GC".
package cas

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hive-engine/hive/asset/hash"
	"github.com/hive-engine/hive/internal/hivelog"
)

// Store is a content-addressed blob store rooted at a directory.
type Store struct {
	root string
	log  *hivelog.Logger
}

// New returns a Store rooted at root, creating the directory if absent.
func New(root string, log *hivelog.Logger) (*Store, error) {
	if log == nil {
		log = hivelog.Nop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cas: create root: %w", err)
	}
	return &Store{root: root, log: log}, nil
}

// pathFor returns the sharded on-disk path for h: <root>/<hh>/<hh>/<32-hex>.
func (s *Store) pathFor(h hash.ContentHash) string {
	hex := h.String()
	return filepath.Join(s.root, hex[0:2], hex[2:4], hex)
}

// Store writes data if not already present, and returns its content hash.
// A second Store of identical bytes is idempotent: it returns the same
// hash without rewriting the file.
func (s *Store) Store(data []byte) (hash.ContentHash, error) {
	h := hash.FromBytes(data)
	if s.Contains(h) {
		return h, nil
	}
	dst := s.pathFor(h)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return h, fmt.Errorf("cas: create shard dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return h, fmt.Errorf("cas: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return h, fmt.Errorf("cas: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return h, fmt.Errorf("cas: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return h, fmt.Errorf("cas: rename into place: %w", err)
	}
	s.log.Debug("stored blob", "hash", h.String(), "bytes", len(data))
	return h, nil
}

// Load reads the blob for h, returning (nil, false) if it is not present.
func (s *Store) Load(h hash.ContentHash) ([]byte, bool) {
	data, err := os.ReadFile(s.pathFor(h))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Contains reports whether a blob for h exists.
func (s *Store) Contains(h hash.ContentHash) bool {
	_, err := os.Stat(s.pathFor(h))
	return err == nil
}

// Remove deletes the blob for h. Used only by GC; direct callers should
// never remove a live blob outside a GC sweep, or they risk dangling
// references from the asset database.
func (s *Store) Remove(h hash.ContentHash) bool {
	return os.Remove(s.pathFor(h)) == nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }
