package importpipe

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/config"
	"github.com/hive-engine/hive/asset/hash"
	"github.com/hive-engine/hive/asset/vfs"
	"github.com/hive-engine/hive/internal/hivelog"
)

// Pipeline wires together VFS source reads, the importer registry, the
// intermediate-blob CAS, and the asset database into a single
// read -> import -> store -> record flow.
type Pipeline struct {
	vfs      *vfs.VFS
	registry *Registry
	cas      ContentHasher
	db       *assetdb.DB
	log      *hivelog.Logger
}

// New returns a Pipeline over the given collaborators.
func New(v *vfs.VFS, registry *Registry, cas ContentHasher, db *assetdb.DB, log *hivelog.Logger) *Pipeline {
	if log == nil {
		log = hivelog.Nop()
	}
	return &Pipeline{vfs: v, registry: registry, cas: cas, db: db, log: log}
}

// ImportOutcome reports the result of importing a single asset: success
// flag, payload identity, and error, in a shape a batch run can
// aggregate.
type ImportOutcome struct {
	Path    string
	UUID    uuid.UUID
	Skipped bool // already up to date, import not re-run
	Err     error
}

// ImportOne reads path from the VFS, finds its importer by extension,
// runs it, and on success stores the intermediate blob in the CAS and
// records the result in the asset database. If an existing record for
// path is already up to date (per NeedsReimport), the import is skipped.
func (p *Pipeline) ImportOne(path string, settings *config.Document) ImportOutcome {
	path = vfs.NormalizePath(path)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	imp, ok := p.registry.Lookup(ext)
	if !ok {
		return ImportOutcome{Path: path, Err: fmt.Errorf("%w: .%s", ErrNoImporter, ext)}
	}

	source, err := p.vfs.ReadSync(path)
	if err != nil {
		return ImportOutcome{Path: path, Err: fmt.Errorf("importpipe: read %s: %w", path, err)}
	}
	sourceHash := hash.FromBytes(source)

	existing, hasExisting := p.db.GetByPath(path)
	if hasExisting && !existing.NeedsReimport(imp.Version(), sourceHash) {
		return ImportOutcome{Path: path, UUID: existing.UUID, Skipped: true}
	}

	ctx := &ImportContext{Path: path, Settings: settings}
	result := imp.Import(source, ctx)
	if !result.Success {
		return ImportOutcome{Path: path, Err: fmt.Errorf("importpipe: import %s: %w", path, result.Err)}
	}

	intermediateHash, err := p.cas.Store(result.Intermediate)
	if err != nil {
		return ImportOutcome{Path: path, Err: fmt.Errorf("importpipe: store intermediate: %w", err)}
	}

	id := existing.UUID
	if !hasExisting {
		id = uuid.New()
	}
	rec := assetdb.Record{
		UUID:             id,
		Path:             path,
		Type:             imp.TargetType(),
		SourceHash:       sourceHash,
		IntermediateHash: intermediateHash,
		ImporterVersion:  imp.Version(),
		Deps:             ctx.deps,
		ImportedAt:       time.Now(),
	}
	if err := p.db.Put(rec); err != nil {
		return ImportOutcome{Path: path, Err: fmt.Errorf("importpipe: record %s: %w", path, err)}
	}
	p.log.Debug("imported asset", "path", path, "uuid", id.String(), "type", rec.Type)
	return ImportOutcome{Path: path, UUID: id}
}

// BatchResult aggregates a batch import run.
type BatchResult struct {
	Imported int
	Skipped  int
	Failed   []ImportOutcome
}

// ImportAll imports each path in paths, continuing past individual
// failures and collecting them for the caller.
func (p *Pipeline) ImportAll(paths []string, settings *config.Document) BatchResult {
	var result BatchResult
	for _, path := range paths {
		outcome := p.ImportOne(path, settings)
		switch {
		case outcome.Err != nil:
			result.Failed = append(result.Failed, outcome)
		case outcome.Skipped:
			result.Skipped++
		default:
			result.Imported++
		}
	}
	return result
}

// Err returns a single error summarizing every failure in the batch, with
// a captured stack trace rooted at the first failure, or nil if none
// failed. Intended for a caller that wants to report one error to an
// operator without walking Failed itself.
func (b BatchResult) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	first := b.Failed[0]
	return errors.Wrapf(first.Err, "importpipe: %d of %d paths failed, first at %s",
		len(b.Failed), len(b.Failed)+b.Imported+b.Skipped, first.Path)
}
