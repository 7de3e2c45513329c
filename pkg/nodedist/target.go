package nodedist

import (
	"fmt"
	"runtime"

	"github.com/matzehuels/noderig/pkg/versions"
)

// Target identifies the prebuilt distribution for one platform.
type Target struct {
	OS   string // linux, darwin, win
	Arch string // x64, arm64, ...
}

var (
	osNames = map[string]string{
		"linux":   "linux",
		"darwin":  "darwin",
		"windows": "win",
	}
	archNames = map[string]string{
		"amd64":   "x64",
		"386":     "x86",
		"arm":     "armv7l",
		"arm64":   "arm64",
		"ppc64":   "ppc64",
		"ppc64le": "ppc64le",
		"s390x":   "s390x",
	}
)

// TargetFor maps Go's GOOS/GOARCH to the names used on the distribution
// server.
func TargetFor(goos, goarch string) (Target, error) {
	osName, ok := osNames[goos]
	if !ok {
		return Target{}, fmt.Errorf("no Node.js builds for operating system %q", goos)
	}
	arch, ok := archNames[goarch]
	if !ok {
		return Target{}, fmt.Errorf("no Node.js builds for architecture %q", goarch)
	}
	return Target{OS: osName, Arch: arch}, nil
}

// HostTarget is the target of the running process.
func HostTarget() (Target, error) {
	return TargetFor(runtime.GOOS, runtime.GOARCH)
}

// Ext is the archive extension published for the target.
func (t Target) Ext() string {
	if t.OS == "win" {
		return "zip"
	}
	return "tar.gz"
}

// ArchiveName is the file name of v's archive, e.g.
// node-v20.1.0-linux-x64.tar.gz.
func (t Target) ArchiveName(v versions.Version) string {
	return fmt.Sprintf("node-v%s-%s-%s.%s", v, t.OS, t.Arch, t.Ext())
}

func (t Target) String() string { return t.OS + "-" + t.Arch }
