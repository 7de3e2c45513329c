package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/matzehuels/noderig/pkg/catalog"
	"github.com/matzehuels/noderig/pkg/config"
	"github.com/matzehuels/noderig/pkg/observability"
	"github.com/matzehuels/noderig/pkg/versions"
)

const installLockRetry = 250 * time.Millisecond

// existing says what installRelease does with a version that turns out to
// be installed once the install lock is held.
type existing int

const (
	askReinstall existing = iota
	forceReinstall
	keepExisting
)

// Install resolves spec against the catalog and installs the release.
// Reinstalling an installed version needs force or the user's consent;
// without either the result is OutcomeUnchanged.
func (m *Manager) Install(ctx context.Context, spec versions.Spec, force bool) (versions.Release, Outcome, error) {
	r, err := m.resolveRemote(ctx, spec)
	if err != nil {
		return versions.Release{}, OutcomeUnchanged, err
	}
	mode := askReinstall
	if force {
		mode = forceReinstall
	}
	outcome, err := m.installRelease(ctx, r, mode)
	return r, outcome, err
}

func (m *Manager) installRelease(ctx context.Context, r versions.Release, mode existing) (outcome Outcome, err error) {
	unlock, err := m.lockInstalls(ctx)
	if err != nil {
		return OutcomeUnchanged, err
	}
	defer unlock()

	// Another process may have installed while we waited for the lock.
	m.inventory = m.inventories.Load()
	if m.inventory.Contains(r.Version) {
		switch mode {
		case keepExisting:
			m.logger.Debug("already installed by another process", "version", r.Version)
			return OutcomeUnchanged, nil
		case askReinstall:
			if !m.confirm.Confirm(fmt.Sprintf("Node %s is already installed. Reinstall?", r.Version), false) {
				m.logger.Info("keeping installed version", "version", r.Version)
				return OutcomeUnchanged, nil
			}
		}
	}

	hooks := observability.Install()
	hooks.OnInstallStart(ctx, r.Version.String())
	start := time.Now()
	defer func() { hooks.OnInstallComplete(ctx, r.Version.String(), time.Since(start), err) }()

	archivePath, err := m.fetcher.Download(ctx, r.Version)
	if err != nil {
		return OutcomeUnchanged, err
	}
	root := m.dirs.VersionRoot(r.Version)
	m.logger.Debug("extracting", "archive", archivePath, "dest", root)
	if err := m.extract(archivePath, root); err != nil {
		return OutcomeUnchanged, err
	}

	m.inventory.Insert(r)
	if err := m.saveInventory(); err != nil {
		return OutcomeDone, err
	}
	m.logger.Info("installed", "version", r.Version, "lts", r.LTS)
	m.remapIfActive(ctx, r.Version)
	return OutcomeDone, nil
}

// Uninstall removes an installed release matching spec. Only installed
// versions are considered, so latest and lts are rejected.
func (m *Manager) Uninstall(ctx context.Context, spec versions.Spec) (versions.Release, Outcome, error) {
	r, err := catalog.ResolveLocal(spec, m.inventory)
	if err != nil {
		return versions.Release{}, OutcomeUnchanged, err
	}
	if !m.confirm.Confirm(fmt.Sprintf("Uninstall Node %s?", r.Version), true) {
		return r, OutcomeUnchanged, nil
	}

	unlock, err := m.lockInstalls(ctx)
	if err != nil {
		return r, OutcomeUnchanged, err
	}
	defer unlock()

	active, activeErr := m.Current(ctx)
	wasActive := activeErr == nil && active.Release.Version == r.Version

	if err := os.RemoveAll(m.dirs.VersionRoot(r.Version)); err != nil {
		return r, OutcomeUnchanged, fmt.Errorf("remove node %s: %w", r.Version, err)
	}
	m.inventory = m.inventories.Load()
	m.inventory.Remove(r.Version)
	if err := m.saveInventory(); err != nil {
		return r, OutcomeDone, err
	}
	m.logger.Info("uninstalled", "version", r.Version)

	if wasActive {
		if _, err := m.reconcile(""); err != nil {
			m.logger.Warn("could not remove shims", "error", err)
		}
	}
	return r, OutcomeDone, nil
}

// Use makes spec the default version. A release that is not installed yet
// is installed after confirmation; if the user declines, the default is left
// alone and the outcome is OutcomeUnchanged. The returned release is what
// spec resolves to now.
func (m *Manager) Use(ctx context.Context, spec versions.Spec) (versions.Release, Outcome, error) {
	r, err := m.resolve(ctx, spec)
	if err != nil {
		return versions.Release{}, OutcomeUnchanged, err
	}
	if !m.IsInstalled(r.Version) {
		if !m.confirm.Confirm(fmt.Sprintf("Node %s is not installed. Install it now?", r.Version), true) {
			m.logger.Info("default unchanged", "spec", spec, "version", r.Version)
			return r, OutcomeUnchanged, nil
		}
		if _, err := m.installRelease(ctx, r, keepExisting); err != nil {
			return r, OutcomeUnchanged, err
		}
	}
	m.config.Update(func(c *config.Config) { c.DefaultVersion = spec })
	if _, err := m.reconcile(m.binDir(r.Version)); err != nil {
		return r, OutcomeDone, err
	}
	return r, OutcomeDone, nil
}

// lockInstalls serializes installs and uninstalls across processes.
func (m *Manager) lockInstalls(ctx context.Context) (func(), error) {
	path := m.dirs.InstallLock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, installLockRetry)
	if err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire install lock: %s is held by another process", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
