// Package importpipe turns raw source bytes read from the VFS into
// platform-neutral intermediate blobs stored in the CAS, recording the
// result in the asset database.
//
// Grounded on Nectar/include/nectar/pipeline/importer.h and
// import_pipeline.h.
package importpipe

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/config"
	"github.com/hive-engine/hive/asset/hash"
)

// ImportContext is passed to an Importer's Import call. Importers declare
// dependencies on other already-known assets through RequireDependency so
// the database can track edges for cascade invalidation.
type ImportContext struct {
	Path     string
	Settings *config.Document
	deps     []assetdb.Dependency
}

// RequireDependency records that the asset currently being imported
// depends on dep with the given strength (Hard/Soft/Build).
func (c *ImportContext) RequireDependency(dep uuid.UUID, kind assetdb.DepKind) {
	c.deps = append(c.deps, assetdb.Dependency{To: dep, Kind: kind})
}

// Result is what an Importer returns from Import.
type Result struct {
	Success      bool
	Intermediate []byte
	Err          error
}

// Importer converts source bytes of a recognized extension into an
// intermediate representation. Version, together with the source's
// content hash, decides staleness (the name is not recorded); Version
// must be bumped whenever the importer's output format changes.
type Importer interface {
	Name() string
	Version() int
	TargetType() string
	Extensions() []string
	Import(source []byte, ctx *ImportContext) Result
}

// Registry maps file extensions to the importer responsible for them.
type Registry struct {
	byExtension map[string]Importer
}

// NewRegistry returns an empty importer registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string]Importer)}
}

// Register adds imp for all of its declared extensions, overwriting any
// prior registration for the same extension.
func (r *Registry) Register(imp Importer) {
	for _, ext := range imp.Extensions() {
		r.byExtension[ext] = imp
	}
}

// Lookup returns the importer registered for ext, if any.
func (r *Registry) Lookup(ext string) (Importer, bool) {
	imp, ok := r.byExtension[ext]
	return imp, ok
}

// ErrNoImporter is returned when no importer is registered for an
// asset's extension.
var ErrNoImporter = fmt.Errorf("importpipe: no importer registered for extension")

// ContentHasher abstracts the CAS store's write side, letting importers
// and the pipeline be tested without a real filesystem-backed store.
type ContentHasher interface {
	Store(data []byte) (hash.ContentHash, error)
}
