package cookpipe

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/hash"
	"github.com/hive-engine/hive/internal/hivelog"
	"github.com/hive-engine/hive/internal/mathutil"
)

// Blobs is the subset of the CAS the cook pipeline needs: reading an
// intermediate blob and storing a cooked one.
type Blobs interface {
	Load(h hash.ContentHash) ([]byte, error)
	Store(data []byte) (hash.ContentHash, error)
}

// Pipeline cooks imported assets for a target platform, caching by
// cook-key and supporting cascade invalidation on upstream change.
type Pipeline struct {
	db       *assetdb.DB
	cas      Blobs
	cache    *Cache
	registry *Registry
	log      *hivelog.Logger
}

// New returns a cook Pipeline over the given collaborators.
func New(db *assetdb.DB, cas Blobs, cache *Cache, registry *Registry, log *hivelog.Logger) *Pipeline {
	if log == nil {
		log = hivelog.Nop()
	}
	return &Pipeline{db: db, cas: cas, cache: cache, registry: registry, log: log}
}

// CookOutcome reports one asset's cook result.
type CookOutcome struct {
	UUID       uuid.UUID
	CookedHash hash.ContentHash
	CacheHit   bool
	Err        error
}

// CookAllResult aggregates a CookAll run.
type CookAllResult struct {
	Cooked   []CookOutcome
	CacheHit int
	Failed   []CookOutcome
}

// CookAll cooks every asset in ids for platform, respecting dependency
// order: level 0 has no outgoing dependencies within the batch, level
// N+1 depends only on assets at level <=N. Each level cooks in parallel
// bounded by workers (0 means unbounded up to len(level)).
func (p *Pipeline) CookAll(ctx context.Context, ids []uuid.UUID, platform string, workers int) (CookAllResult, error) {
	levels, err := p.levelsFor(ids)
	if err != nil {
		return CookAllResult{}, err
	}

	cookedHashes := make(map[uuid.UUID]hash.ContentHash, len(ids))
	var result CookAllResult

	for _, level := range levels {
		limit := workers
		if limit <= 0 {
			limit = len(level)
		}
		sem := semaphore.NewWeighted(int64(mathutil.MaxInt(1, limit)))
		g, gctx := errgroup.WithContext(ctx)
		outcomes := make([]CookOutcome, len(level))

		for i, id := range level {
			i, id := i, id
			if err := sem.Acquire(gctx, 1); err != nil {
				return result, err
			}
			g.Go(func() error {
				defer sem.Release(1)
				outcomes[i] = p.cookOne(id, platform, cookedHashes)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		for _, outcome := range outcomes {
			if outcome.Err != nil {
				result.Failed = append(result.Failed, outcome)
				continue
			}
			cookedHashes[outcome.UUID] = outcome.CookedHash
			result.Cooked = append(result.Cooked, outcome)
			if outcome.CacheHit {
				result.CacheHit++
			}
		}
	}
	return result, nil
}

// Err returns a single error summarizing every failure in a CookAll run,
// with a captured stack trace rooted at the first failure, or nil if none
// failed.
func (r CookAllResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	first := r.Failed[0]
	return errors.Wrapf(first.Err, "cookpipe: %d of %d assets failed, first %s",
		len(r.Failed), len(r.Failed)+len(r.Cooked), first.UUID)
}

func (p *Pipeline) cookOne(id uuid.UUID, platform string, cookedHashes map[uuid.UUID]hash.ContentHash) CookOutcome {
	rec, ok := p.db.Get(id)
	if !ok {
		return CookOutcome{UUID: id, Err: fmt.Errorf("cookpipe: no asset record for %s", id)}
	}
	cooker, ok := p.registry.Lookup(rec.Type)
	if !ok {
		return CookOutcome{UUID: id, Err: fmt.Errorf("%w: %s", ErrNoCooker, rec.Type)}
	}

	var depHashes []hash.ContentHash
	for _, dep := range rec.Deps {
		if !dep.Kind.Has(assetdb.DepKindCascade) {
			continue
		}
		if h, ok := cookedHashes[dep.To]; ok {
			depHashes = append(depHashes, h)
		}
	}

	key := CookKey{
		IntermediateHash: rec.IntermediateHash,
		CookerVersion:    cooker.Version(),
		Platform:         platform,
		DepCookedHashes:  depHashes,
	}
	keyHash := key.Hash()

	if entry, ok := p.cache.Lookup(id, platform, keyHash); ok {
		return CookOutcome{UUID: id, CookedHash: entry.CookedHash, CacheHit: true}
	}

	intermediate, err := p.cas.Load(rec.IntermediateHash)
	if err != nil {
		return CookOutcome{UUID: id, Err: fmt.Errorf("cookpipe: load intermediate for %s: %w", id, err)}
	}
	cooked, err := cooker.Cook(intermediate, CookContext{Platform: platform})
	if err != nil {
		return CookOutcome{UUID: id, Err: fmt.Errorf("cookpipe: cook %s: %w", id, err)}
	}
	cookedHash, err := p.cas.Store(cooked)
	if err != nil {
		return CookOutcome{UUID: id, Err: fmt.Errorf("cookpipe: store cooked %s: %w", id, err)}
	}

	err = p.cache.Store(CacheEntry{
		AssetUUID:  id,
		Platform:   platform,
		Key:        keyHash,
		CookedHash: cookedHash,
		Version:    cooker.Version(),
	})
	if err != nil {
		return CookOutcome{UUID: id, Err: fmt.Errorf("cookpipe: update cache for %s: %w", id, err)}
	}
	return CookOutcome{UUID: id, CookedHash: cookedHash}
}

// levelsFor topologically sorts ids into dependency levels, restricted to
// edges whose endpoints are both in the batch.
func (p *Pipeline) levelsFor(ids []uuid.UUID) ([][]uuid.UUID, error) {
	inBatch := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		inBatch[id] = struct{}{}
	}

	deps := make(map[uuid.UUID][]uuid.UUID, len(ids))
	for _, id := range ids {
		rec, ok := p.db.Get(id)
		if !ok {
			return nil, fmt.Errorf("cookpipe: no asset record for %s", id)
		}
		for _, dep := range rec.Deps {
			if !dep.Kind.Has(assetdb.DepKindCascade) {
				continue
			}
			if _, ok := inBatch[dep.To]; ok {
				deps[id] = append(deps[id], dep.To)
			}
		}
	}

	inDegree := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		inDegree[id] = len(deps[id])
	}

	var levels [][]uuid.UUID
	remaining := len(inDegree)
	for remaining > 0 {
		var frontier []uuid.UUID
		for id, deg := range inDegree {
			if deg == 0 {
				frontier = append(frontier, id)
			}
		}
		if len(frontier) == 0 {
			return nil, fmt.Errorf("cookpipe: cycle detected among batch assets")
		}
		for _, id := range frontier {
			delete(inDegree, id)
			remaining--
		}
		for id := range inDegree {
			for _, dep := range frontier {
				for _, d := range deps[id] {
					if d == dep {
						inDegree[id]--
					}
				}
			}
		}
		levels = append(levels, frontier)
	}
	return levels, nil
}

// InvalidateCascade finds every asset transitively depending on changed
// through a Hard or Build edge and removes its cache entry for platform,
// forcing a recook on the next CookAll. A Soft dependent is left alone:
// it works without changed and doesn't need recooking when it changes.
func (p *Pipeline) InvalidateCascade(changed uuid.UUID, platform string) ([]uuid.UUID, error) {
	dependents := p.db.Graph().ReverseDependents(changed, assetdb.DepKindCascade)
	for _, id := range dependents {
		if err := p.cache.Invalidate(id, platform); err != nil {
			return nil, fmt.Errorf("cookpipe: invalidate %s: %w", id, err)
		}
	}
	if err := p.cache.Invalidate(changed, platform); err != nil {
		return nil, err
	}
	return dependents, nil
}
