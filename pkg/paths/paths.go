// Package paths computes the directories noderig uses. They are resolved
// once at startup and passed to every component explicitly.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/matzehuels/noderig/pkg/versions"
)

const (
	appName = "noderig"

	// HomeEnv overrides every directory with subdirectories of one root.
	HomeEnv = "NODERIG_HOME"
)

// Dirs holds every location noderig reads or writes.
type Dirs struct {
	Config   string // config.toml
	Data     string // installed toolchains, inventory, shims
	Cache    string // release catalog, downloaded archives
	Shims    string // wrapper scripts; put this on PATH
	Versions string // one directory per installed version
}

// Default resolves directories from NODERIG_HOME if set, else from the XDG
// base directories.
func Default() (Dirs, error) {
	if home, ok := os.LookupEnv(HomeEnv); ok && home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return Dirs{}, fmt.Errorf("resolve %s: %w", HomeEnv, err)
		}
		return At(abs), nil
	}
	return fromBase(
		filepath.Join(xdg.ConfigHome, appName),
		filepath.Join(xdg.DataHome, appName),
		filepath.Join(xdg.CacheHome, appName),
	), nil
}

// At places every directory under root.
func At(root string) Dirs {
	return fromBase(
		filepath.Join(root, "config"),
		filepath.Join(root, "data"),
		filepath.Join(root, "cache"),
	)
}

func fromBase(config, data, cache string) Dirs {
	return Dirs{
		Config:   config,
		Data:     data,
		Cache:    cache,
		Shims:    filepath.Join(data, "bin"),
		Versions: filepath.Join(data, "versions"),
	}
}

// Ensure creates every directory.
func (d Dirs) Ensure() error {
	for _, dir := range []string{d.Config, d.Data, d.Cache, d.Shims, d.Versions} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ConfigFile is the TOML configuration.
func (d Dirs) ConfigFile() string { return filepath.Join(d.Config, "config.toml") }

// CatalogFile is the cached release catalog.
func (d Dirs) CatalogFile() string { return filepath.Join(d.Cache, "releases.bin") }

// InventoryFile is the installed-version inventory.
func (d Dirs) InventoryFile() string { return filepath.Join(d.Data, "installed.bin") }

// InstallLock serializes installs across processes.
func (d Dirs) InstallLock() string { return filepath.Join(d.Data, "install.lock") }

// Downloads holds fetched archives.
func (d Dirs) Downloads() string { return filepath.Join(d.Cache, "downloads") }

// VersionRoot is the install root of one version.
func (d Dirs) VersionRoot(v versions.Version) string {
	return filepath.Join(d.Versions, v.String())
}
