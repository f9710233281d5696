// Command hivecook imports and cooks a project's assets, resolving the
// CAS root, asset directory, and cache directory from a project file
// relative to that file's own directory.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hive-engine/hive/asset/assetdb"
	"github.com/hive-engine/hive/asset/cas"
	"github.com/hive-engine/hive/asset/cookpipe"
	"github.com/hive-engine/hive/asset/importpipe"
	"github.com/hive-engine/hive/asset/vfs"
	"github.com/hive-engine/hive/internal/hiveconfig"
	"github.com/hive-engine/hive/internal/hivelog"
)

// platformFlag restricts --platform to the platform identifiers pc,
// console and mobile instead of accepting an arbitrary string.
type platformFlag string

var _ pflag.Value = (*platformFlag)(nil)

func (p *platformFlag) String() string { return string(*p) }
func (p *platformFlag) Type() string   { return "platform" }
func (p *platformFlag) Set(s string) error {
	switch s {
	case "pc", "console", "mobile":
		*p = platformFlag(s)
		return nil
	default:
		return fmt.Errorf("unknown platform %q (want pc, console, or mobile)", s)
	}
}

func main() {
	platform := platformFlag("pc")
	var workers int

	root := &cobra.Command{
		Use:   "hivecook <project-file> <asset-path> [more-asset-paths...]",
		Short: "Import and cook the named assets for a platform",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1:], string(platform), workers)
		},
	}
	root.Flags().Var(&platform, "platform", "target platform: pc, console, or mobile")
	root.Flags().IntVar(&workers, "workers", 0, "cook worker count per dependency level (0 = unbounded)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(projectFile string, assetPaths []string, platform string, workers int) error {
	log := hivelog.New("hivecook")

	proj, err := hiveconfig.Load(projectFile)
	if err != nil {
		return fmt.Errorf("hivecook: load project file: %w", err)
	}
	for _, dir := range []string{proj.AssetDir, proj.CasDir, proj.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("hivecook: create %s: %w", dir, err)
		}
	}

	store, err := cas.New(proj.CasDir, log)
	if err != nil {
		return fmt.Errorf("hivecook: open CAS: %w", err)
	}
	blobs := cas.ErrStore{Store: store}

	db, err := assetdb.Open(filepath.Join(proj.CacheDir, "assets.db"), log)
	if err != nil {
		return fmt.Errorf("hivecook: open asset database: %w", err)
	}
	defer db.Close()

	cache, err := cookpipe.OpenCache(filepath.Join(proj.CacheDir, "cook_cache.db"), log)
	if err != nil {
		return fmt.Errorf("hivecook: open cook cache: %w", err)
	}
	defer cache.Close()

	v := vfs.New()
	v.Mount("", vfs.NewDiskSource(proj.AssetDir), 0)

	importers := importpipe.NewRegistry()
	importers.Register(importpipe.NewPassthroughImporter("Raw", []string{"bin", "dat", "raw"}))
	cookers := cookpipe.NewRegistry()
	cookers.Register(cookpipe.NewPassthroughCooker("Raw"))

	importer := importpipe.New(v, importers, blobs, db, log)
	cooker := cookpipe.New(db, blobs, cache, cookers, log)

	batch := importer.ImportAll(assetPaths, nil)
	log.Info("import complete", "imported", batch.Imported, "skipped", batch.Skipped, "failed", len(batch.Failed))
	for _, failure := range batch.Failed {
		log.Error("import failed", failure.Err, "path", failure.Path)
	}

	var ids []uuid.UUID
	for _, path := range assetPaths {
		if rec, ok := db.GetByPath(vfs.NormalizePath(path)); ok {
			ids = append(ids, rec.UUID)
		}
	}
	if len(ids) == 0 {
		if len(batch.Failed) > 0 {
			os.Exit(1)
		}
		return nil
	}

	result, err := cooker.CookAll(context.Background(), ids, platform, workers)
	if err != nil {
		return fmt.Errorf("hivecook: cook: %w", err)
	}
	log.Info("cook complete", "cooked", len(result.Cooked), "cache_hits", result.CacheHit, "failed", len(result.Failed))
	for _, failure := range result.Failed {
		log.Error("cook failed", failure.Err, "uuid", failure.UUID.String())
	}

	if err := batch.Err(); err != nil {
		log.Error("import batch had failures", err)
	}
	if err := result.Err(); err != nil {
		log.Error("cook batch had failures", err)
	}
	if batch.Err() != nil || result.Err() != nil {
		os.Exit(1)
	}
	return nil
}
