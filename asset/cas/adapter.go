package cas

import (
	"fmt"

	"github.com/hive-engine/hive/asset/hash"
)

// ErrStore adapts Store's (data, bool) Load to the (data, error) shape
// expected by importpipe.ContentHasher, cookpipe.Blobs, and
// server.BlobLoader, all of which treat "not found" as an error rather
// than a boolean.
type ErrStore struct{ *Store }

// Load returns an error if h is not present, instead of Store's (nil,
// false).
func (s ErrStore) Load(h hash.ContentHash) ([]byte, error) {
	data, ok := s.Store.Load(h)
	if !ok {
		return nil, fmt.Errorf("cas: blob %s not found", h)
	}
	return data, nil
}
