// Package manager implements noderig's operations on top of the catalog,
// inventory, configuration, detector and mapper packages.
//
// A Manager is created once per process and is not safe for concurrent use;
// the configuration it holds is, and may be shared with other components.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/noderig/pkg/archive"
	"github.com/matzehuels/noderig/pkg/catalog"
	"github.com/matzehuels/noderig/pkg/config"
	"github.com/matzehuels/noderig/pkg/detect"
	"github.com/matzehuels/noderig/pkg/mapper"
	"github.com/matzehuels/noderig/pkg/observability"
	"github.com/matzehuels/noderig/pkg/paths"
	"github.com/matzehuels/noderig/pkg/versions"
)

// Fetcher provides the release index and release archives.
type Fetcher interface {
	Releases(ctx context.Context) ([]versions.Release, error)
	Download(ctx context.Context, v versions.Version) (string, error)
}

// Confirmer asks the user a yes/no question. def is the answer assumed when
// nobody can be asked.
type Confirmer interface {
	Confirm(prompt string, def bool) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string, def bool) bool

func (f ConfirmFunc) Confirm(prompt string, def bool) bool { return f(prompt, def) }

// Outcome tells whether an operation changed anything.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeUnchanged
)

func (o Outcome) String() string {
	if o == OutcomeUnchanged {
		return "unchanged"
	}
	return "done"
}

// Options wires a Manager. Dirs, Config, Fetcher, Mapper and Detector are
// required.
type Options struct {
	Dirs     paths.Dirs
	Config   *config.Access
	Fetcher  Fetcher
	Mapper   *mapper.Mapper
	Detector *detect.Detector
	Confirm  Confirmer                   // nil accepts every default
	Extract  func(src, dest string) error // nil uses archive.Extract
	Logger   *log.Logger
}

// Manager coordinates installs, version selection, shims and exec.
type Manager struct {
	dirs     paths.Dirs
	config   *config.Access
	fetcher  Fetcher
	mapper   *mapper.Mapper
	detector *detect.Detector
	confirm  Confirmer
	extract  func(src, dest string) error
	logger   *log.Logger

	catalogs    *catalog.CatalogStore
	inventories *catalog.InventoryStore
	inventory   *catalog.Inventory
	catalog     *catalog.Catalog
}

// New builds a Manager and loads the installed inventory.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	confirm := opts.Confirm
	if confirm == nil {
		confirm = ConfirmFunc(func(_ string, def bool) bool { return def })
	}
	extract := opts.Extract
	if extract == nil {
		extract = archive.Extract
	}
	m := &Manager{
		dirs:        opts.Dirs,
		config:      opts.Config,
		fetcher:     opts.Fetcher,
		mapper:      opts.Mapper,
		detector:    opts.Detector,
		confirm:     confirm,
		extract:     extract,
		logger:      logger,
		catalogs:    catalog.NewCatalogStore(opts.Dirs.CatalogFile(), logger),
		inventories: catalog.NewInventoryStore(opts.Dirs.InventoryFile(), logger),
	}
	m.inventory = m.inventories.Load()
	return m
}

// Close writes the configuration.
func (m *Manager) Close() error {
	return m.config.Persist()
}

// ConfigPending reports whether a configuration change has not reached the
// config file yet. Close writes it.
func (m *Manager) ConfigPending() bool { return m.config.Dirty() }

// Catalog returns the release catalog, fetching it when no cached copy
// exists.
func (m *Manager) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	if m.catalog != nil {
		return m.catalog, nil
	}
	if c, ok := m.catalogs.Load(); ok {
		observability.Catalog().OnCatalogHit(ctx, c.Len())
		m.catalog = c
		return c, nil
	}
	return m.fetchCatalog(ctx)
}

func (m *Manager) fetchCatalog(ctx context.Context) (*catalog.Catalog, error) {
	start := time.Now()
	releases, err := m.fetcher.Releases(ctx)
	observability.Catalog().OnCatalogFetch(ctx, len(releases), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	c := catalog.New(releases)
	if err := m.catalogs.Save(c); err != nil {
		m.logger.Warn("could not cache release catalog", "error", err)
	}
	m.catalog = c
	return c, nil
}

// Installed lists installed releases in ascending order.
func (m *Manager) Installed() []versions.Release {
	return m.inventory.Releases()
}

// IsInstalled reports whether v is installed.
func (m *Manager) IsInstalled(v versions.Version) bool {
	return m.inventory.Contains(v)
}

// resolveRemote resolves spec against the catalog.
func (m *Manager) resolveRemote(ctx context.Context, spec versions.Spec) (versions.Release, error) {
	c, err := m.Catalog(ctx)
	if err != nil {
		return versions.Release{}, fmt.Errorf("resolve %s: %w", spec, err)
	}
	return catalog.Resolve(spec, c)
}

// resolve prefers installed releases. Specs the inventory cannot answer,
// latest and lts among them, go to the catalog.
func (m *Manager) resolve(ctx context.Context, spec versions.Spec) (versions.Release, error) {
	r, err := catalog.ResolveLocal(spec, m.inventory)
	if err == nil {
		return r, nil
	}
	var verr *versions.Error
	if !errors.As(err, &verr) {
		return versions.Release{}, err
	}
	m.logger.Debug("not resolvable from installed versions", "spec", spec, "reason", verr.Kind)
	return m.resolveRemote(ctx, spec)
}

// binDir is where v's executables live.
func (m *Manager) binDir(v versions.Version) string {
	return m.mapper.Platform().BinDir(m.dirs.VersionRoot(v))
}

func (m *Manager) saveInventory() error {
	if err := m.inventories.Save(m.inventory); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// CachePath is the directory holding the catalog and downloads.
func (m *Manager) CachePath() string { return m.dirs.Cache }

// ClearCache deletes the cached catalog and downloaded archives.
func (m *Manager) ClearCache() error {
	if err := m.catalogs.Clear(); err != nil {
		return err
	}
	m.catalog = nil
	if err := os.RemoveAll(m.dirs.Downloads()); err != nil {
		return fmt.Errorf("clear downloads: %w", err)
	}
	return nil
}
