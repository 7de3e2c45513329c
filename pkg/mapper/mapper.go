// Package mapper exposes an installed toolchain's executables through a
// directory of shims and runs those executables on behalf of the shims.
//
// A shim is a small script named after a command that calls back into
// noderig's exec entry point, which then picks the version to run. The shim
// directory is a derived artifact: [Mapper.Reconcile] rewrites it to match
// the active version's bin directory.
package mapper

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// maxParallelShims bounds concurrent file operations during reconciliation.
const maxParallelShims = 16

// Mapper owns one shim directory.
type Mapper struct {
	platform Platform
	shimDir  string
	self     string
	logger   *log.Logger
}

// New returns a mapper writing shims into shimDir that invoke the
// executable at self.
func New(platform Platform, shimDir, self string, logger *log.Logger) *Mapper {
	if platform == nil {
		platform = Current()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Mapper{platform: platform, shimDir: shimDir, self: self, logger: logger}
}

// Platform returns the platform the mapper was built for.
func (m *Mapper) Platform() Platform { return m.platform }

// ShimDir returns the managed directory.
func (m *Mapper) ShimDir() string { return m.shimDir }

// Report lists what a reconciliation changed, by command name.
type Report struct {
	Written   []string
	Removed   []string
	Unchanged []string
}

// Changed reports whether any file was written or removed.
func (r Report) Changed() bool { return len(r.Written)+len(r.Removed) > 0 }

// Reconcile makes the shim directory mirror the executables in binDir. An
// empty binDir removes every shim. Commands for which keep returns true are
// neither written nor removed.
//
// Every shim is processed even if some fail; failures are returned together
// in a *ReconcileError alongside the partial report.
func (m *Mapper) Reconcile(binDir string, keep func(command string) bool) (Report, error) {
	if keep == nil {
		keep = func(string) bool { return false }
	}
	if err := os.MkdirAll(m.shimDir, 0o755); err != nil {
		return Report{}, &DirError{Dir: m.shimDir, Err: err}
	}

	sources := map[string]commandFile{}
	if binDir != "" {
		var err error
		if sources, err = m.commands(binDir); err != nil {
			return Report{}, err
		}
	}
	existing, err := os.ReadDir(m.shimDir)
	if err != nil {
		return Report{}, &DirError{Dir: m.shimDir, Err: err}
	}

	var (
		mu       sync.Mutex
		report   Report
		failures []error
	)
	record := func(list *[]string, name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failures = append(failures, err)
			return
		}
		*list = append(*list, name)
	}

	var g errgroup.Group
	g.SetLimit(maxParallelShims)

	for command, src := range sources {
		if keep(command) {
			continue
		}
		g.Go(func() error {
			changed, err := m.writeShim(command, src.mode)
			if changed {
				record(&report.Written, command, err)
			} else {
				record(&report.Unchanged, command, err)
			}
			return nil
		})
	}

	for _, entry := range existing {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		command := m.platform.CommandName(name)
		if keep(command) {
			continue
		}
		if _, ok := sources[command]; ok && strings.EqualFold(name, m.platform.ShimName(command)) {
			continue
		}
		g.Go(func() error {
			err := os.Remove(filepath.Join(m.shimDir, name))
			if errors.Is(err, os.ErrNotExist) {
				err = nil
			}
			if err != nil {
				err = fmt.Errorf("remove shim %s: %w", name, err)
			}
			record(&report.Removed, command, err)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Written)
	sort.Strings(report.Removed)
	sort.Strings(report.Unchanged)
	m.logger.Debug("reconciled shims", "dir", m.shimDir, "written", len(report.Written),
		"removed", len(report.Removed), "unchanged", len(report.Unchanged), "failed", len(failures))

	if len(failures) > 0 {
		return report, &ReconcileError{Failures: failures}
	}
	return report, nil
}

// WriteShim writes the shim for a single command regardless of what any bin
// directory contains. It is used for pinned commands.
func (m *Mapper) WriteShim(command string) error {
	if err := os.MkdirAll(m.shimDir, 0o755); err != nil {
		return &DirError{Dir: m.shimDir, Err: err}
	}
	_, err := m.writeShim(command, 0o755)
	return err
}

// RemoveShim deletes the shim for command. A missing shim is not an error.
func (m *Mapper) RemoveShim(command string) error {
	err := os.Remove(filepath.Join(m.shimDir, m.platform.ShimName(command)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove shim %s: %w", command, err)
	}
	return nil
}

// Shims lists the commands that currently have a shim.
func (m *Mapper) Shims() ([]string, error) {
	entries, err := os.ReadDir(m.shimDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &DirError{Dir: m.shimDir, Err: err}
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, m.platform.CommandName(e.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

type commandFile struct {
	name string
	mode os.FileMode
}

// commands lists the executables in binDir keyed by command name. When two
// files provide the same command the earlier candidate extension wins.
func (m *Mapper) commands(binDir string) (map[string]commandFile, error) {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return nil, &DirError{Dir: binDir, Err: err}
	}
	exts := m.platform.CandidateExtensions()
	rank := func(name string) int { return slices.Index(exts, strings.ToLower(filepath.Ext(name))) }

	out := make(map[string]commandFile, len(entries))
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(binDir, e.Name()))
		if err != nil {
			m.logger.Debug("skipping unreadable bin entry", "name", e.Name(), "error", err)
			continue
		}
		if !m.platform.Executable(e.Name(), info) {
			continue
		}
		command := m.platform.CommandName(e.Name())
		if prev, ok := out[command]; ok && rank(prev.name) <= rank(e.Name()) {
			continue
		}
		out[command] = commandFile{name: e.Name(), mode: info.Mode().Perm()}
	}
	return out, nil
}

// writeShim writes the shim for command with mode unless an identical file is
// already in place. It reports whether the file changed.
func (m *Mapper) writeShim(command string, mode os.FileMode) (bool, error) {
	path := filepath.Join(m.shimDir, m.platform.ShimName(command))
	content := m.platform.ShimContent(m.self, command)
	mode |= 0o400

	if info, err := os.Stat(path); err == nil && info.Mode().Perm() == mode {
		if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, content) {
			return false, nil
		}
	}

	tmp, err := os.CreateTemp(m.shimDir, ".shim-*")
	if err != nil {
		return false, fmt.Errorf("write shim %s: %w", command, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write shim %s: %w", command, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("write shim %s: %w", command, err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return false, fmt.Errorf("write shim %s: %w", command, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("write shim %s: %w", command, err)
	}
	return true, nil
}
