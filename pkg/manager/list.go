package manager

import (
	"context"
	"slices"

	"github.com/matzehuels/noderig/pkg/versions"
)

// ListRemote returns catalog releases, newest first, optionally only LTS
// releases.
func (m *Manager) ListRemote(ctx context.Context, ltsOnly bool) ([]versions.Release, error) {
	c, err := m.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	releases := c.Releases()
	if ltsOnly {
		releases = slices.DeleteFunc(releases, func(r versions.Release) bool { return !r.IsLTS() })
	}
	slices.Reverse(releases)
	return releases, nil
}

// Refresh drops the cached catalog, fetches a new one and remaps shims for
// the active version. It returns the number of known releases.
func (m *Manager) Refresh(ctx context.Context) (int, error) {
	if err := m.catalogs.Clear(); err != nil {
		return 0, err
	}
	m.catalog = nil
	c, err := m.fetchCatalog(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := m.Remap(ctx); err != nil {
		m.logger.Debug("remap after refresh skipped", "error", err)
	}
	return c.Len(), nil
}
