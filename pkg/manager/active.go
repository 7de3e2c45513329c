package manager

import (
	"context"

	"github.com/matzehuels/noderig/pkg/detect"
	"github.com/matzehuels/noderig/pkg/mapper"
	"github.com/matzehuels/noderig/pkg/versions"
)

// Active describes the version selected for the working directory.
type Active struct {
	detect.Finding
	Release   versions.Release
	Installed bool
}

// Current detects the active spec and resolves it.
func (m *Manager) Current(ctx context.Context) (Active, error) {
	cfg, err := m.config.Get()
	if err != nil {
		return Active{}, err
	}
	finding := m.detector.Detect(ctx, cfg.DefaultVersion)
	r, err := m.resolve(ctx, finding.Spec)
	if err != nil {
		return Active{Finding: finding}, err
	}
	return Active{Finding: finding, Release: r, Installed: m.IsInstalled(r.Version)}, nil
}

// Remap rewrites the shim directory for the active version. Pinned
// commands keep their shims.
func (m *Manager) Remap(ctx context.Context) (mapper.Report, error) {
	active, err := m.Current(ctx)
	if err != nil {
		return mapper.Report{}, err
	}
	if !active.Installed {
		return mapper.Report{}, versions.NotInstalledError(active.Release.Version)
	}
	return m.reconcile(m.binDir(active.Release.Version))
}

// Shims lists the commands that have a shim, pinned ones included.
func (m *Manager) Shims() ([]string, error) {
	return m.mapper.Shims()
}

// ShimDir is the directory that belongs on PATH.
func (m *Manager) ShimDir() string { return m.mapper.ShimDir() }

// reconcile runs the mapper against binDir, or against nothing when binDir
// is empty.
func (m *Manager) reconcile(binDir string) (mapper.Report, error) {
	cfg, err := m.config.Get()
	if err != nil {
		return mapper.Report{}, err
	}
	report, err := m.mapper.Reconcile(binDir, func(command string) bool {
		_, pinned := cfg.Pinned(command)
		return pinned
	})
	if report.Changed() {
		m.logger.Info("updated shims", "written", len(report.Written), "removed", len(report.Removed))
	}
	return report, err
}

// remapIfActive reconciles shims when v is the active version. Failures are
// logged; the operation that triggered them already succeeded.
func (m *Manager) remapIfActive(ctx context.Context, v versions.Version) {
	active, err := m.Current(ctx)
	if err != nil || active.Release.Version != v || !active.Installed {
		return
	}
	if _, err := m.reconcile(m.binDir(v)); err != nil {
		m.logger.Warn("could not update shims", "error", err)
	}
}
