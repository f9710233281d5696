// Package assetdb stores asset records (uuid, path, type, content hashes,
// importer version, dependency edges) with dual uuid/path indices, backed
// by bbolt, plus a dependency graph used for cascade invalidation.
//
// Grounded on Nectar/include/nectar/database/asset_database.h and
// dependency_graph.h.
package assetdb

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hive-engine/hive/asset/hash"
)

// Dependency is one edge out of a Record: the asset it depends on and the
// strength of that dependency.
type Dependency struct {
	To   uuid.UUID `json:"to"`
	Kind DepKind   `json:"kind"`
}

// Record is everything the pipeline knows about one imported asset.
type Record struct {
	UUID             uuid.UUID        `json:"uuid"`
	Path             string           `json:"path"`
	Type             string           `json:"type"`
	SourceHash       hash.ContentHash `json:"source_hash"`
	IntermediateHash hash.ContentHash `json:"intermediate_hash"`
	ImporterVersion  int              `json:"importer_version"`
	Deps             []Dependency     `json:"deps"`
	ImportedAt       time.Time        `json:"imported_at"`
}

func (r Record) marshal() ([]byte, error) { return json.Marshal(r) }

func unmarshalRecord(b []byte) (Record, error) {
	var r Record
	err := json.Unmarshal(b, &r)
	return r, err
}

// NeedsReimport reports whether r is stale given the importer's current
// version and the source's current content hash.
func (r Record) NeedsReimport(currentImporterVersion int, currentSourceHash hash.ContentHash) bool {
	return r.ImporterVersion != currentImporterVersion || r.SourceHash != currentSourceHash
}
