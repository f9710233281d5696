// Package vfs implements the virtual filesystem: a priority-ordered list
// of mounts, each binding a normalized path prefix to a Source. A path
// resolves to the highest-priority mount whose prefix matches it; prefix
// length plays no part, and among equal priorities the earlier mount wins.
package vfs

import (
	"sort"
	"strings"
)

// Source is a mount's backing data provider.
type Source interface {
	// ReadSync reads the full contents of rel, a path relative to the
	// mount's prefix.
	ReadSync(rel string) ([]byte, error)
	// Exists reports whether rel exists under this source.
	Exists(rel string) bool
	// Stat returns size and whether rel is a directory.
	Stat(rel string) (size int64, isDir bool, err error)
	// ListDirectory lists immediate entries of rel.
	ListDirectory(rel string) ([]string, error)
}

// mount is one registered prefix -> source binding.
type mount struct {
	prefix   string
	source   Source
	priority int
}

// VFS composes an immutable-once-built set of mounts. Mounts are added
// at setup only; Resolve/ReadSync/etc. are safe for concurrent use
// without locking once construction is done.
type VFS struct {
	mounts []mount
}

// New returns an empty VFS.
func New() *VFS {
	return &VFS{}
}

// NormalizePath lowercases, converts backslashes to forward slashes,
// resolves "." and ".." segments, and strips a trailing slash.
func NormalizePath(p string) string {
	p = strings.ToLower(p)
	p = strings.ReplaceAll(p, `\`, "/")
	segments := strings.Split(p, "/")
	var out []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}

// Mount registers a prefix -> source binding at the given priority. Mounts
// must be added before any resolution call; the VFS does not support
// unmounting while in use (rebuilding a new VFS is cheap — this type
// holds no state beyond the mount list).
func (v *VFS) Mount(prefix string, source Source, priority int) {
	v.mounts = append(v.mounts, mount{prefix: NormalizePath(prefix), source: source, priority: priority})
	sort.SliceStable(v.mounts, func(i, j int) bool { return v.mounts[i].priority > v.mounts[j].priority })
}

// resolve scans mounts by descending priority and returns the first whose
// normalized prefix prefixes path, plus the path remainder relative to
// that mount.
func (v *VFS) resolve(path string) (mount, string, bool) {
	norm := NormalizePath(path)
	for _, m := range v.mounts {
		if m.prefix == "" {
			return m, norm, true
		}
		if norm == m.prefix {
			return m, "", true
		}
		if strings.HasPrefix(norm, m.prefix+"/") {
			return m, strings.TrimPrefix(norm, m.prefix+"/"), true
		}
	}
	return mount{}, "", false
}

// ErrNoMount is returned when no mount's prefix matches a resolved path.
type ErrNoMount struct{ Path string }

func (e *ErrNoMount) Error() string { return "vfs: no mount resolves path " + e.Path }

// ReadSync reads the full contents of path via its resolved mount.
func (v *VFS) ReadSync(path string) ([]byte, error) {
	m, rel, ok := v.resolve(path)
	if !ok {
		return nil, &ErrNoMount{Path: path}
	}
	return m.source.ReadSync(rel)
}

// Exists reports whether path resolves to an existing entry.
func (v *VFS) Exists(path string) bool {
	m, rel, ok := v.resolve(path)
	if !ok {
		return false
	}
	return m.source.Exists(rel)
}

// Stat reports size and directory-ness for path.
func (v *VFS) Stat(path string) (size int64, isDir bool, err error) {
	m, rel, ok := v.resolve(path)
	if !ok {
		return 0, false, &ErrNoMount{Path: path}
	}
	return m.source.Stat(rel)
}

// ListDirectory merges entries from every mount whose prefix matches
// path, deduplicated by name.
func (v *VFS) ListDirectory(path string) ([]string, error) {
	norm := NormalizePath(path)
	seen := make(map[string]struct{})
	var out []string
	var lastErr error
	matched := false
	for _, m := range v.mounts {
		var rel string
		switch {
		case m.prefix == "" || norm == m.prefix:
			rel = strings.TrimPrefix(norm, m.prefix)
		case strings.HasPrefix(norm, m.prefix+"/"):
			rel = strings.TrimPrefix(norm, m.prefix+"/")
		default:
			continue
		}
		matched = true
		entries, err := m.source.ListDirectory(rel)
		if err != nil {
			lastErr = err
			continue
		}
		for _, e := range entries {
			if _, dup := seen[e]; !dup {
				seen[e] = struct{}{}
				out = append(out, e)
			}
		}
	}
	if !matched {
		return nil, &ErrNoMount{Path: path}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	sort.Strings(out)
	return out, nil
}
