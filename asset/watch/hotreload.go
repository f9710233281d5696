package watch

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/config"
	"github.com/hive-engine/hive/asset/cookpipe"
	"github.com/hive-engine/hive/asset/importpipe"
	"github.com/hive-engine/hive/asset/vfs"
	"github.com/hive-engine/hive/internal/hivelog"
)

// Manager watches source directories and, on each poll, re-imports
// changed assets, cascades cook-cache invalidation, and re-cooks the
// affected set.
type Manager struct {
	watcher  Watcher
	db       *assetdb.DB
	importer *importpipe.Pipeline
	cooker   *cookpipe.Pipeline
	platform string
	log      *hivelog.Logger
}

// NewManager returns a hot-reload manager driving watcher against the
// given import/cook pipelines for platform.
func NewManager(watcher Watcher, db *assetdb.DB, importer *importpipe.Pipeline, cooker *cookpipe.Pipeline, platform string, log *hivelog.Logger) *Manager {
	if log == nil {
		log = hivelog.Nop()
	}
	return &Manager{watcher: watcher, db: db, importer: importer, cooker: cooker, platform: platform, log: log}
}

// PollAndReload runs one hot-reload cycle: poll the watcher, re-import
// every changed source that maps to a known asset path, cascade-
// invalidate each reimported asset's cook cache, then re-cook the full
// affected set. It returns every asset id that was reloaded, leaving it
// to the caller to decide how to publish the change to live systems.
func (m *Manager) PollAndReload(ctx context.Context, settings *config.Document) ([]uuid.UUID, error) {
	events, err := m.watcher.Poll()
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	affected := make(map[uuid.UUID]struct{})
	for _, ev := range events {
		if ev.Kind == Deleted {
			continue
		}
		// Map the watcher's filesystem path to the longest trailing path the database knows.
		var assetPath string
		segs := strings.Split(vfs.NormalizePath(ev.Path), "/")
		for i := range segs {
			if rec, ok := m.db.GetByPath(strings.Join(segs[i:], "/")); ok {
				assetPath = rec.Path
				break
			}
		}
		if assetPath == "" {
			continue
		}
		outcome := m.importer.ImportOne(assetPath, settings)
		if outcome.Err != nil {
			m.log.Warn("hot reload: reimport failed", "path", ev.Path, "error", outcome.Err.Error())
			continue
		}
		if outcome.Skipped {
			continue
		}

		affected[outcome.UUID] = struct{}{}
		for _, dep := range m.db.Graph().ReverseDependents(outcome.UUID, assetdb.DepKindCascade) {
			affected[dep] = struct{}{}
		}
	}
	if len(affected) == 0 {
		return nil, nil
	}

	for id := range affected {
		if _, err := m.cooker.InvalidateCascade(id, m.platform); err != nil {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	if _, err := m.cooker.CookAll(ctx, ids, m.platform, 0); err != nil {
		return nil, err
	}

	m.log.Info("hot reload cycle complete", "reloaded", len(ids))
	return ids, nil
}
