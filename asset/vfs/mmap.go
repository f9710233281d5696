package vfs

import (
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
)

// MmapSource serves files from <root>/<rel> via read-only memory-mapping.
// ReadSync still copies the mapped bytes into a new Go slice, so each read
// allocates the file's full size, as with DiskSource.
type MmapSource struct {
	root string
}

// NewMmapSource returns a Source rooted at root, served via mmap.
func NewMmapSource(root string) *MmapSource {
	return &MmapSource{root: root}
}

func (m *MmapSource) path(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}

// ReadSync memory-maps rel read-only, copies its bytes out, and unmaps it.
// The copy keeps the Source interface simple (callers own the returned
// slice); hot paths that want zero-copy access should open the mapping
// directly rather than go through the generic VFS interface.
func (m *MmapSource) ReadSync(rel string) ([]byte, error) {
	f, err := os.Open(m.path(rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return []byte{}, nil
	}

	mapping, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer mapping.Unmap()

	out := make([]byte, len(mapping))
	copy(out, mapping)
	return out, nil
}

// Exists reports whether rel exists on disk.
func (m *MmapSource) Exists(rel string) bool {
	_, err := os.Stat(m.path(rel))
	return err == nil
}

// Stat reports size and directory-ness for rel.
func (m *MmapSource) Stat(rel string) (int64, bool, error) {
	info, err := os.Stat(m.path(rel))
	if err != nil {
		return 0, false, err
	}
	return info.Size(), info.IsDir(), nil
}

// ListDirectory lists immediate entries of rel.
func (m *MmapSource) ListDirectory(rel string) ([]string, error) {
	entries, err := os.ReadDir(m.path(rel))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out, nil
}
