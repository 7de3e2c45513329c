package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/noderig/pkg/config"
	"github.com/matzehuels/noderig/pkg/versions"
)

// Exec runs command from the version selected for it and returns the exit
// code. A pinned command uses its pin, anything else the detected version.
// A missing version is installed first. Commands that can install global
// packages are followed by a remap so new executables get shims.
func (m *Manager) Exec(ctx context.Context, command string, args []string) (int, error) {
	r, err := m.versionFor(ctx, command)
	if err != nil {
		return 0, err
	}
	if !m.IsInstalled(r.Version) {
		m.logger.Info("installing missing version", "version", r.Version, "command", command)
		if _, err := m.installRelease(ctx, r, keepExisting); err != nil {
			return 0, err
		}
	}

	binDir := m.binDir(r.Version)
	code, err := m.mapper.Exec(binDir, command, args)
	if err != nil {
		return code, err
	}
	if mayInstallGlobals(command, args) {
		if _, err := m.Remap(ctx); err != nil {
			m.logger.Warn("could not update shims", "error", err)
		}
	}
	return code, nil
}

// Which returns the file Exec would run for command.
func (m *Manager) Which(ctx context.Context, command string) (string, versions.Release, error) {
	r, err := m.versionFor(ctx, command)
	if err != nil {
		return "", versions.Release{}, err
	}
	if !m.IsInstalled(r.Version) {
		return "", r, versions.NotInstalledError(r.Version)
	}
	path, err := m.mapper.Lookup(m.binDir(r.Version), command)
	return path, r, err
}

func (m *Manager) versionFor(ctx context.Context, command string) (versions.Release, error) {
	cfg, err := m.config.Get()
	if err != nil {
		return versions.Release{}, err
	}
	if spec, ok := cfg.Pinned(command); ok {
		m.logger.Debug("using pinned version", "command", command, "spec", spec)
		return m.resolve(ctx, spec)
	}
	active, err := m.Current(ctx)
	if err != nil {
		return versions.Release{}, err
	}
	return active.Release, nil
}

// Pin makes command always run with spec. The command's shim is kept
// outside of reconciliation until it is unpinned.
func (m *Manager) Pin(command string, spec versions.Spec) error {
	if err := validCommand(command); err != nil {
		return err
	}
	m.config.Update(func(c *config.Config) {
		if c.PinnedCommands == nil {
			c.PinnedCommands = map[string]versions.Spec{}
		}
		c.PinnedCommands[command] = spec
	})
	if _, err := m.config.Get(); err != nil {
		return err
	}
	return m.mapper.WriteShim(command)
}

// Unpin removes a pin and its shim, then remaps so a regular shim takes
// its place if the active version provides the command. It reports whether
// a pin existed.
func (m *Manager) Unpin(ctx context.Context, command string) (bool, error) {
	var existed bool
	m.config.Update(func(c *config.Config) {
		_, existed = c.PinnedCommands[command]
		delete(c.PinnedCommands, command)
	})
	if !existed {
		return false, nil
	}
	if _, err := m.config.Get(); err != nil {
		return true, err
	}
	if err := m.mapper.RemoveShim(command); err != nil {
		return true, err
	}
	if _, err := m.Remap(ctx); err != nil {
		m.logger.Debug("remap after unpin skipped", "error", err)
	}
	return true, nil
}

// Pins returns the pinned commands sorted by name.
func (m *Manager) Pins() ([]string, map[string]versions.Spec, error) {
	cfg, err := m.config.Get()
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(cfg.PinnedCommands))
	for name := range cfg.PinnedCommands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, cfg.PinnedCommands, nil
}

func validCommand(command string) error {
	if command == "" || command != filepath.Base(command) || strings.ContainsAny(command, `/\`) || command == "." || command == ".." {
		return fmt.Errorf("invalid command name %q", command)
	}
	return nil
}

var (
	packageManagers = []string{"npm", "npx", "corepack", "pnpm", "yarn"}
	installVerbs    = []string{"install", "i", "add", "uninstall", "remove", "rm", "link", "unlink"}
)

// mayInstallGlobals reports whether running command with args can add or
// remove executables in the toolchain's bin directory.
func mayInstallGlobals(command string, args []string) bool {
	if !slices.Contains(packageManagers, command) {
		return false
	}
	for _, a := range args {
		if a == "-g" || a == "--global" || slices.Contains(installVerbs, a) {
			return true
		}
	}
	return false
}
