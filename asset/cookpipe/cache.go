package cookpipe

import (
	"encoding/json"
	"fmt"

	arc "github.com/hashicorp/golang-lru/arc/v2"
	"github.com/google/uuid"
	"github.com/gofrs/flock"
	bolt "go.etcd.io/bbolt"

	"github.com/hive-engine/hive/internal/hivelog"
)

var bucketCache = []byte("cook_cache")

// Cache persists cook-key -> cooked-hash mappings keyed by (asset uuid,
// platform), backed by bbolt for durability and an ARC hot cache in front
// of it to avoid a disk round trip on every lookup. An exclusive file
// lock guards the bbolt file against concurrent cook processes: while one
// process holds the cache open, OpenCache fails in every other process.
type Cache struct {
	bolt *bolt.DB
	lock *flock.Flock
	hot  *arc.ARCCache[string, CacheEntry]
	log  *hivelog.Logger
}

// OpenCache opens (creating if absent) the bbolt-backed cache at path.
func OpenCache(path string, log *hivelog.Logger) (*Cache, error) {
	if log == nil {
		log = hivelog.Nop()
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cookpipe: acquire cache lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cookpipe: cache at %s is locked by another process", path)
	}

	bdb, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("cookpipe: open cache db: %w", err)
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCache)
		return err
	})
	if err != nil {
		bdb.Close()
		lock.Unlock()
		return nil, fmt.Errorf("cookpipe: init cache bucket: %w", err)
	}

	hot, err := arc.NewARC[string, CacheEntry](1024)
	if err != nil {
		bdb.Close()
		lock.Unlock()
		return nil, fmt.Errorf("cookpipe: init hot cache: %w", err)
	}

	return &Cache{bolt: bdb, lock: lock, hot: hot, log: log}, nil
}

// Close releases the cache's file handle and lock.
func (c *Cache) Close() error {
	err := c.bolt.Close()
	c.lock.Unlock()
	return err
}

func cacheKey(id uuid.UUID, platform string) string {
	return id.String() + "|" + platform
}

// Lookup returns the cached entry for (id, platform) if present and its
// key matches want — a cook-key mismatch means something upstream
// changed and the cook must be re-run.
func (c *Cache) Lookup(id uuid.UUID, platform string, want uint64) (CacheEntry, bool) {
	key := cacheKey(id, platform)
	if entry, ok := c.hot.Get(key); ok {
		return entry, entry.Key == want
	}

	var entry CacheEntry
	var found bool
	c.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCache).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if found {
		c.hot.Add(key, entry)
	}
	return entry, found && entry.Key == want
}

// Store records entry, replacing any prior entry for the same
// (uuid, platform).
func (c *Cache) Store(entry CacheEntry) error {
	key := cacheKey(entry.AssetUUID, entry.Platform)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cookpipe: marshal cache entry: %w", err)
	}
	err = c.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCache).Put([]byte(key), data)
	})
	if err != nil {
		return err
	}
	c.hot.Add(key, entry)
	return nil
}

// Invalidate drops any cached entry for (id, platform).
func (c *Cache) Invalidate(id uuid.UUID, platform string) error {
	key := cacheKey(id, platform)
	c.hot.Remove(key)
	return c.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCache).Delete([]byte(key))
	})
}
