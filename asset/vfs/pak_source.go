package vfs

import (
	"fmt"

	"github.com/hive-engine/hive/asset/hash"
)

// PakArchive is the subset of asset/pak.Reader the VFS needs: resolve a
// virtual path to a content hash via the archive's embedded manifest, then
// read the hash's bytes out of the packed blocks.
type PakArchive interface {
	ResolvePath(path string) (hash.ContentHash, bool)
	ReadByHash(h hash.ContentHash) ([]byte, error)
}

// PakSource resolves mount-relative paths through an archive's embedded
// manifest to a content hash, then reads the blob out of the packed
// blocks.
type PakSource struct {
	archive PakArchive
}

// NewPakSource wraps an opened archive as a VFS Source.
func NewPakSource(archive PakArchive) *PakSource {
	return &PakSource{archive: archive}
}

// ReadSync resolves rel through the manifest and reads its blob.
func (p *PakSource) ReadSync(rel string) ([]byte, error) {
	h, ok := p.archive.ResolvePath(NormalizePath(rel))
	if !ok {
		return nil, fmt.Errorf("vfs: pak archive has no manifest entry for %q", rel)
	}
	return p.archive.ReadByHash(h)
}

// Exists reports whether rel has a manifest entry.
func (p *PakSource) Exists(rel string) bool {
	_, ok := p.archive.ResolvePath(NormalizePath(rel))
	return ok
}

// Stat reports the blob's decompressed size for rel.
func (p *PakSource) Stat(rel string) (int64, bool, error) {
	data, err := p.ReadSync(rel)
	if err != nil {
		return 0, false, err
	}
	return int64(len(data)), false, nil
}

// ListDirectory is not supported by packed archives, which index assets
// by manifest path rather than a directory tree.
func (p *PakSource) ListDirectory(rel string) ([]string, error) {
	return nil, fmt.Errorf("vfs: pak source does not support directory listing")
}
