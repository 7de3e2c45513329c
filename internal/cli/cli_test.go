package cli

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/noderig/pkg/config"
	"github.com/matzehuels/noderig/pkg/nodedist"
	"github.com/matzehuels/noderig/pkg/paths"
	"github.com/matzehuels/noderig/pkg/versions"
)

const testIndex = `[
  {"version": "v21.0.0", "lts": false},
  {"version": "v20.9.0", "lts": "Iron"},
  {"version": "v18.17.1", "lts": "Hydrogen"}
]`

// nodeTarball builds a release archive whose node exits with code.
func nodeTarball(t *testing.T, v string, target nodedist.Target, code int) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	top := fmt.Sprintf("node-v%s-%s", v, target)
	script := fmt.Sprintf("#!/bin/sh\nexit %d\n", code)
	entries := []struct {
		name string
		mode int64
		body string
		dir  bool
	}{
		{name: top + "/", mode: 0o755, dir: true},
		{name: top + "/bin/", mode: 0o755, dir: true},
		{name: top + "/bin/node", mode: 0o755, body: script},
		{name: top + "/bin/npm", mode: 0o755, body: script},
	}
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(tw, e.body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// distServer serves an index and one v20.9.0 archive for the host.
func distServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	target, err := nodedist.HostTarget()
	if err != nil {
		t.Skipf("unsupported host: %v", err)
	}
	v := versions.MustParseVersion("20.9.0")
	archive := nodeTarball(t, v.String(), target, code)
	sum := sha256.Sum256(archive)
	name := target.ArchiveName(v)

	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testIndex)
	})
	mux.HandleFunc("/v20.9.0/SHASUMS256.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  %s\n", hex.EncodeToString(sum[:]), name)
	})
	mux.HandleFunc("/v20.9.0/"+name, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	cli  *CLI
	dirs paths.Dirs
	out  *bytes.Buffer
}

func newHarness(t *testing.T, srv *httptest.Server) *harness {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script toolchain")
	}
	t.Setenv("NODE_VERSION", "")

	dirs := paths.At(t.TempDir())
	if err := dirs.Ensure(); err != nil {
		t.Fatal(err)
	}
	cfg := fmt.Sprintf("dist_base_url = %q\n", srv.URL)
	if err := os.WriteFile(dirs.ConfigFile(), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	orig := stdout
	stdout = &out
	t.Cleanup(func() { stdout = orig })

	c := New(io.Discard, LogInfo)
	c.dirs = &dirs
	c.stdin = strings.NewReader("")
	return &harness{cli: c, dirs: dirs, out: &out}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	root := h.cli.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestInstallUseExec(t *testing.T) {
	h := newHarness(t, distServer(t, 7))

	if err := h.run("install", "20"); err != nil {
		t.Fatalf("install: %v", err)
	}
	if !strings.Contains(h.out.String(), "20.9.0") {
		t.Errorf("install output = %q", h.out.String())
	}
	if _, err := os.Stat(filepath.Join(h.dirs.VersionRoot(versions.MustParseVersion("20.9.0")), "bin", "node")); err != nil {
		t.Fatalf("node not extracted: %v", err)
	}

	if err := h.run("use", "iron"); err != nil {
		t.Fatalf("use: %v", err)
	}
	for _, cmd := range []string{"node", "npm"} {
		if _, err := os.Stat(filepath.Join(h.dirs.Shims, cmd)); err != nil {
			t.Errorf("shim %s missing: %v", cmd, err)
		}
	}

	if err := h.run("current"); err != nil {
		t.Fatalf("current: %v", err)
	}
	if out := h.out.String(); !strings.Contains(out, h.dirs.Shims) || !strings.Contains(out, "2 commands") {
		t.Errorf("current output = %q", out)
	}

	if err := h.run("list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(h.out.String(), "v20.9.0") || !strings.Contains(h.out.String(), iconActive) {
		t.Errorf("list output = %q", h.out.String())
	}

	err := h.run("exec", "node", "--", "--version")
	if got := ExitCode(err); got != 7 {
		t.Errorf("exec exit code = %d (err %v), want 7", got, err)
	}

	if err := h.run("which", "npm"); err != nil {
		t.Fatalf("which: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(h.out.String()), filepath.Join("bin", "npm")) {
		t.Errorf("which output = %q", h.out.String())
	}

	if err := h.run("install", "20"); err != nil {
		t.Fatalf("second install: %v", err)
	}
	if !strings.Contains(h.out.String(), "already installed") {
		t.Errorf("second install output = %q", h.out.String())
	}

	if err := h.run("uninstall", "20"); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.dirs.Shims, "node")); !os.IsNotExist(err) {
		t.Errorf("node shim left after uninstalling the active version: %v", err)
	}
}

// readOnlyStore loads a fixed config and fails every write.
type readOnlyStore struct{ cfg config.Config }

func (s readOnlyStore) Load() (config.Config, error) { return s.cfg.Clone(), nil }

func (s readOnlyStore) Save(config.Config) error {
	return &config.Error{Op: "write", Path: "config.toml", Err: os.ErrPermission}
}

func TestExecSurvivesUnwritableConfig(t *testing.T) {
	srv := distServer(t, 0)
	h := newHarness(t, srv)
	if err := h.run("install", "20"); err != nil {
		t.Fatalf("install: %v", err)
	}

	cfg := config.Default()
	cfg.DistBaseURL = srv.URL
	h.cli.store = readOnlyStore{cfg: cfg}

	if err := h.run("exec", "node", "--", "--version"); err != nil {
		t.Errorf("exec with an unwritable config = %v, want the child's exit code 0", err)
	}

	err := h.run("use", "20")
	var cerr *config.Error
	if !errors.As(err, &cerr) {
		t.Errorf("use with an unwritable config = %v, want *config.Error", err)
	}
}

func TestListRemote(t *testing.T) {
	h := newHarness(t, distServer(t, 0))

	if err := h.run("list-remote", "--lts"); err != nil {
		t.Fatalf("list-remote: %v", err)
	}
	out := h.out.String()
	if !strings.Contains(out, "v20.9.0") || !strings.Contains(out, "v18.17.1") {
		t.Errorf("output missing LTS releases: %q", out)
	}
	if strings.Contains(out, "v21.0.0") {
		t.Errorf("output lists a current release: %q", out)
	}
	if !strings.Contains(out, "iron, hydrogen") {
		t.Errorf("output missing LTS lines: %q", out)
	}
}

func TestPinCommands(t *testing.T) {
	h := newHarness(t, distServer(t, 0))

	if err := h.run("pin", "yarn", "18"); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.dirs.Shims, "yarn")); err != nil {
		t.Errorf("pinned shim missing: %v", err)
	}
	data, err := os.ReadFile(h.dirs.ConfigFile())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "yarn") {
		t.Errorf("config not saved: %q", data)
	}

	if err := h.run("pin"); err != nil {
		t.Fatalf("pin list: %v", err)
	}
	if !strings.Contains(h.out.String(), "yarn") {
		t.Errorf("pin list output = %q", h.out.String())
	}

	if err := h.run("pin", "yarn"); err == nil {
		t.Error("pin with one argument succeeded")
	}
}

func TestUninstallRejectsLatest(t *testing.T) {
	h := newHarness(t, distServer(t, 0))

	err := h.run("uninstall", "lts")
	if !versions.IsKind(err, versions.Unsupported) {
		t.Errorf("uninstall lts = %v, want unsupported", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
}

func TestCachePath(t *testing.T) {
	h := newHarness(t, distServer(t, 0))

	if err := h.run("cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(h.out.String()); got != h.dirs.Cache {
		t.Errorf("cache path = %q, want %q", got, h.dirs.Cache)
	}

	if err := h.run("list-remote"); err != nil {
		t.Fatalf("list-remote: %v", err)
	}
	if _, err := os.Stat(h.dirs.CatalogFile()); err != nil {
		t.Fatalf("catalog not cached: %v", err)
	}
	if err := h.run("cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(h.dirs.CatalogFile()); !os.IsNotExist(err) {
		t.Errorf("catalog still cached: %v", err)
	}
}

func TestCompletion(t *testing.T) {
	h := newHarness(t, distServer(t, 0))

	if err := h.run("completion", "bash"); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(h.out.String(), "noderig") {
		t.Error("bash completion does not mention noderig")
	}
}
