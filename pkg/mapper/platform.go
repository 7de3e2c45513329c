package mapper

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// Platform holds every OS-dependent detail of shims and command lookup.
// Select one with Current at startup and pass it around.
type Platform interface {
	// BinDir returns the executables directory of an installed toolchain.
	BinDir(root string) string
	// ShimName is the file name of the shim for command.
	ShimName(command string) string
	// CommandName maps a file name back to the command it provides. It folds
	// case where the file system does.
	CommandName(file string) string
	// ShimContent is the script that forwards command to self's exec.
	ShimContent(self, command string) []byte
	// CandidateExtensions are tried in order when a bare name is missing.
	CandidateExtensions() []string
	// Executable reports whether a file in a bin dir is a command.
	Executable(name string, info fs.FileInfo) bool
}

var (
	// POSIX is the platform for Linux, macOS and other Unix systems.
	POSIX Platform = posix{}
	// Windows is the platform for Windows.
	Windows Platform = windows{}
)

// Current returns the platform of the running process.
func Current() Platform {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return POSIX
}

type posix struct{}

func (posix) BinDir(root string) string     { return filepath.Join(root, "bin") }
func (posix) ShimName(command string) string { return command }
func (posix) CommandName(file string) string { return file }
func (posix) CandidateExtensions() []string  { return nil }

func (posix) ShimContent(self, command string) []byte {
	return fmt.Appendf(nil, "#!/bin/sh\nexec %s exec %s -- \"$@\"\n", shellQuote(self), shellQuote(command))
}

func (posix) Executable(_ string, info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type windows struct{}

var windowsExtensions = []string{".exe", ".bat", ".cmd", ".ps1"}

func (windows) BinDir(root string) string     { return root }
func (windows) ShimName(command string) string { return command + ".bat" }
func (windows) CandidateExtensions() []string  { return windowsExtensions }

func (windows) CommandName(file string) string {
	return strings.ToLower(strings.TrimSuffix(file, filepath.Ext(file)))
}

func (windows) ShimContent(self, command string) []byte {
	return fmt.Appendf(nil, "@echo off\r\n\"%s\" exec %s -- %%*\r\n", self, command)
}

func (windows) Executable(name string, info fs.FileInfo) bool {
	return info.Mode().IsRegular() && extensionRank(name) >= 0
}

// extensionRank is the position of name's extension in the candidate list,
// or -1.
func extensionRank(name string) int {
	return slices.Index(windowsExtensions, strings.ToLower(filepath.Ext(name)))
}
