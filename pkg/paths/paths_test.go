package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/noderig/pkg/versions"
)

func TestDefaultHonoursHomeEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv(HomeEnv, root)

	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if d.Config != filepath.Join(root, "config") {
		t.Errorf("Config = %s", d.Config)
	}
	if d.Shims != filepath.Join(root, "data", "bin") {
		t.Errorf("Shims = %s", d.Shims)
	}
	if got := d.VersionRoot(versions.MustParseVersion("v20.1.0")); got != filepath.Join(root, "data", "versions", "20.1.0") {
		t.Errorf("VersionRoot = %s", got)
	}
}

func TestEnsure(t *testing.T) {
	d := At(t.TempDir())
	if err := d.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, dir := range []string{d.Config, d.Data, d.Cache, d.Shims, d.Versions} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}
