package vfs

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// DiskSource translates a mount-relative path to <root>/<rel> and serves
// it through afero's OS filesystem abstraction.
type DiskSource struct {
	root string
	fs   afero.Fs
}

// NewDiskSource returns a Source rooted at root on the real OS filesystem.
func NewDiskSource(root string) *DiskSource {
	return &DiskSource{root: root, fs: afero.NewOsFs()}
}

// NewDiskSourceWithFs allows substituting an afero.Fs, primarily so tests
// can use afero.NewMemMapFs() while still exercising DiskSource's path
// translation logic.
func NewDiskSourceWithFs(root string, aferoFs afero.Fs) *DiskSource {
	return &DiskSource{root: root, fs: aferoFs}
}

func (d *DiskSource) path(rel string) string {
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

// ReadSync reads rel's full contents.
func (d *DiskSource) ReadSync(rel string) ([]byte, error) {
	return afero.ReadFile(d.fs, d.path(rel))
}

// Exists reports whether rel exists on disk.
func (d *DiskSource) Exists(rel string) bool {
	ok, err := afero.Exists(d.fs, d.path(rel))
	return err == nil && ok
}

// Stat reports size and directory-ness for rel.
func (d *DiskSource) Stat(rel string) (int64, bool, error) {
	info, err := d.fs.Stat(d.path(rel))
	if err != nil {
		return 0, false, err
	}
	return info.Size(), info.IsDir(), nil
}

// ListDirectory lists immediate entries of rel.
func (d *DiskSource) ListDirectory(rel string) ([]string, error) {
	entries, err := afero.ReadDir(d.fs, d.path(rel))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out, nil
}
