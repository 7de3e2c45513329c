package catalog

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/noderig/pkg/versions"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestCatalogStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.bin")
	store := NewCatalogStore(path, quietLogger())
	before := New(testReleases())

	if err := store.Save(before); err != nil {
		t.Fatalf("Save: %v", err)
	}
	after, ok := store.Load()
	if !ok {
		t.Fatal("Load() reported absent after Save")
	}

	if diff := cmp.Diff(versionStrings(before.sortedVersions()), versionStrings(after.sortedVersions())); diff != "" {
		t.Errorf("sorted index mismatch (-before +after):\n%s", diff)
	}

	for _, s := range []string{"latest", "lts", "hydrogen", "lts/gallium", "18", "^16.1", "20.1", ">=22", "lts/argon"} {
		spec := versions.MustParseSpec(s)
		r1, err1 := Resolve(spec, before)
		r2, err2 := Resolve(spec, after)
		if r1 != r2 {
			t.Errorf("%s: resolved %v before, %v after", s, r1, r2)
		}
		if (err1 == nil) != (err2 == nil) || (err1 != nil && err1.Error() != err2.Error()) {
			t.Errorf("%s: error %v before, %v after", s, err1, err2)
		}
	}
}

func TestCatalogStoreMissing(t *testing.T) {
	store := NewCatalogStore(filepath.Join(t.TempDir(), "releases.bin"), quietLogger())
	if _, ok := store.Load(); ok {
		t.Error("Load() on missing file should report absent")
	}
}

func TestCatalogStoreDiscardsGarbage(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		path := filepath.Join(t.TempDir(), "releases.bin")
		garbage := make([]byte, 1+rng.Intn(512))
		rng.Read(garbage)
		if err := os.WriteFile(path, garbage, 0o644); err != nil {
			t.Fatal(err)
		}

		if _, ok := NewCatalogStore(path, quietLogger()).Load(); ok {
			t.Fatalf("iteration %d: Load() accepted random bytes", i)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("iteration %d: corrupt cache file was not deleted (stat err %v)", i, err)
		}
	}
}

func TestCatalogStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.bin")
	store := NewCatalogStore(path, quietLogger())
	if err := store.Save(New(testReleases())); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on missing file: %v", err)
	}
	if _, ok := store.Load(); ok {
		t.Error("Load() after Clear should report absent")
	}
}

func TestInventoryStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "installed.bin")
	store := NewInventoryStore(path, quietLogger())

	if inv := store.Load(); inv.Len() != 0 {
		t.Fatalf("missing file should load empty inventory, got %d entries", inv.Len())
	}

	inv := NewInventory(rel("20.10.0", "iron"), rel("16.20.2", "gallium"))
	if err := store.Save(inv); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded := store.Load()
	if diff := cmp.Diff(inv.Releases(), loaded.Releases()); diff != "" {
		t.Errorf("inventory mismatch (-saved +loaded):\n%s", diff)
	}

	if err := os.WriteFile(path, []byte("\x00definitely not cbor"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := store.Load(); got.Len() != 0 {
		t.Errorf("corrupt inventory should load empty, got %d entries", got.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt inventory file was not deleted")
	}
}
