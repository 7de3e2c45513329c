package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

// restore resets the package variables after a test changes them.
func restore(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}

func TestString(t *testing.T) {
	restore(t)
	Version = "v1.2.3"

	got := String()
	for _, want := range []string{"version v1.2.3", "commit: ", "built: "} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
	if ua := UserAgent(); ua != "noderig/v1.2.3" {
		t.Errorf("UserAgent() = %q", ua)
	}
	if tmpl := Template(); tmpl != "{{.Name}} "+got+"\n" {
		t.Errorf("Template() = %q", tmpl)
	}
}

func TestFromModule(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/matzehuels/noderig", Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		},
	}

	t.Run("defaults", func(t *testing.T) {
		restore(t)
		Version, Commit, Date = "dev", "none", "unknown"
		fromModule(info)
		if Version != "v0.4.0" || Commit != "abc123" || Date != "2024-05-01T10:00:00Z" {
			t.Errorf("got %s %s %s", Version, Commit, Date)
		}
	})

	t.Run("ldflags win", func(t *testing.T) {
		restore(t)
		Version, Commit, Date = "v1.0.0", "def456", "2025-01-01"
		fromModule(info)
		if Version != "v1.0.0" || Commit != "def456" || Date != "2025-01-01" {
			t.Errorf("got %s %s %s", Version, Commit, Date)
		}
	})

	t.Run("devel", func(t *testing.T) {
		restore(t)
		Version = "dev"
		fromModule(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		if Version != "dev" {
			t.Errorf("Version = %s, want dev", Version)
		}
	})
}
