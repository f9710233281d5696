// Package hiveconfig loads the project file (hive.toml) that tells the
// CLI tools where to find a project's asset directory, CAS root, and
// cook cache directory. This is distinct from asset/config, which parses
// the per-asset settings document format attached to individual imports.
package hiveconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
)

// Project is the resolved set of directories a project file declares.
type Project struct {
	AssetDir string `mapstructure:"asset_dir" toml:"asset_dir"`
	CasDir   string `mapstructure:"cas_dir" toml:"cas_dir"`
	CacheDir string `mapstructure:"cache_dir" toml:"cache_dir"`
}

func defaultProject() Project {
	return Project{AssetDir: "assets", CasDir: ".hive/cas", CacheDir: ".hive/cache"}
}

// Load reads and decodes the project file at path, a TOML document with a
// [project] table, resolving its directory fields relative to path's own
// directory. Missing fields fall back to their defaults.
func Load(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("hiveconfig: read %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Project{}, fmt.Errorf("hiveconfig: parse %s: %w", path, err)
	}

	proj := defaultProject()
	if section, ok := raw["project"]; ok {
		if err := mapstructure.Decode(section, &proj); err != nil {
			return Project{}, fmt.Errorf("hiveconfig: decode project section of %s: %w", path, err)
		}
	}

	dir := filepath.Dir(path)
	proj.AssetDir = resolve(dir, proj.AssetDir)
	proj.CasDir = resolve(dir, proj.CasDir)
	proj.CacheDir = resolve(dir, proj.CacheDir)
	return proj, nil
}

func resolve(dir, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(dir, rel)
}
