package assetdb

import (
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/hive-engine/hive/internal/hivelog"
)

var (
	bucketRecords   = []byte("records")    // uuid -> json Record
	bucketPathIndex = []byte("path_index") // normalized path -> uuid
)

// DB is the asset database: a dual-indexed record store (by uuid and by
// path) plus a dependency graph, persisted in a single bbolt file.
type DB struct {
	bolt  *bolt.DB
	graph *DependencyGraph
	log   *hivelog.Logger
}

// Open opens (creating if absent) the bbolt-backed asset database at path,
// and loads its dependency graph into memory.
func Open(path string, log *hivelog.Logger) (*DB, error) {
	if log == nil {
		log = hivelog.Nop()
	}
	bdb, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("assetdb: open: %w", err)
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRecords); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketPathIndex); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("assetdb: init buckets: %w", err)
	}

	db := &DB{bolt: bdb, graph: NewDependencyGraph(), log: log}
	if err := db.loadGraph(); err != nil {
		bdb.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying bbolt file handle.
func (d *DB) Close() error { return d.bolt.Close() }

func (d *DB) loadGraph() error {
	return d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		return b.ForEach(func(k, v []byte) error {
			rec, err := unmarshalRecord(v)
			if err != nil {
				return err
			}
			d.graph.addNode(rec.UUID)
			for _, dep := range rec.Deps {
				_ = d.graph.AddEdge(rec.UUID, dep.To, dep.Kind)
			}
			return nil
		})
	})
}

// Put inserts or overwrites a record, updates the path index, and adds
// its declared dependency edges to the graph. Returns ErrDependencyCycle
// if any edge would close a cycle, leaving the record unpersisted.
func (d *DB) Put(rec Record) error {
	d.graph.addNode(rec.UUID)
	for _, dep := range rec.Deps {
		if err := d.graph.AddEdge(rec.UUID, dep.To, dep.Kind); err != nil {
			return err
		}
	}
	data, err := rec.marshal()
	if err != nil {
		return fmt.Errorf("assetdb: marshal record: %w", err)
	}
	return d.bolt.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRecords).Put(rec.UUID[:], data); err != nil {
			return err
		}
		return tx.Bucket(bucketPathIndex).Put([]byte(rec.Path), rec.UUID[:])
	})
}

// Get returns the record for id.
func (d *DB) Get(id uuid.UUID) (Record, bool) {
	var rec Record
	var found bool
	d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get(id[:])
		if v == nil {
			return nil
		}
		var err error
		rec, err = unmarshalRecord(v)
		found = err == nil
		return nil
	})
	return rec, found
}

// GetByPath resolves a normalized asset path to its record.
func (d *DB) GetByPath(path string) (Record, bool) {
	var id uuid.UUID
	var found bool
	d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPathIndex).Get([]byte(path))
		if v == nil {
			return nil
		}
		copy(id[:], v)
		found = true
		return nil
	})
	if !found {
		return Record{}, false
	}
	return d.Get(id)
}

// Graph returns the in-memory dependency graph backing cascade
// invalidation.
func (d *DB) Graph() *DependencyGraph { return d.graph }
