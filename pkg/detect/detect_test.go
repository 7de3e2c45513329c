package detect

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/noderig/pkg/versions"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func envOf(vars map[string]string) Env {
	return Env{Lookup: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}}
}

func TestDetectPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, PinFileName), "18.0.0\n")
	writeFile(t, filepath.Join(dir, ManifestName), `{"engines": {"node": "^16"}}`)
	env := envOf(map[string]string{EnvVar: "20.0.0"})

	tests := []struct {
		name   string
		probes []Probe
		want   string
		source Source
	}{
		{"all signals", []Probe{PinFile{Dir: dir}, Manifest{Dir: dir}, env}, "18.0.0", SourcePinFile},
		{"manifest and env", []Probe{Manifest{Dir: dir}, env}, "^16", SourceManifest},
		{"env only", []Probe{env}, "20.0.0", SourceEnv},
		{"nothing", nil, "lts", SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(quietLogger(), tt.probes...).Detect(context.Background(), versions.LatestLTS)
			if got.Spec.String() != tt.want || got.Source != tt.source {
				t.Errorf("Detect() = %v from %v, want %s from %v", got.Spec, got.Source, tt.want, tt.source)
			}
		})
	}
}

// stubProbe answers after a delay so completion order can be controlled.
type stubProbe struct {
	source Source
	spec   string
	delay  time.Duration
	err    error
}

func (p stubProbe) Source() Source { return p.source }

func (p stubProbe) Probe(ctx context.Context) (Finding, bool, error) {
	time.Sleep(p.delay)
	if p.err != nil {
		return Finding{}, false, p.err
	}
	if p.spec == "" {
		return Finding{}, false, nil
	}
	return Finding{Spec: versions.MustParseSpec(p.spec), Source: p.source}, true, nil
}

func TestDetectIgnoresCompletionOrder(t *testing.T) {
	d := New(quietLogger(),
		stubProbe{source: SourcePinFile, spec: "18", delay: 30 * time.Millisecond},
		stubProbe{source: SourceManifest, spec: "16"},
		stubProbe{source: SourceEnv, spec: "20"},
	)
	if got := d.Detect(context.Background(), versions.Latest); got.Spec.String() != "18.x" {
		t.Errorf("Detect() = %v, want the slow but highest-priority 18.x", got.Spec)
	}
}

func TestDetectFailedProbeHasNoOpinion(t *testing.T) {
	d := New(quietLogger(),
		stubProbe{source: SourcePinFile, err: errors.New("permission denied")},
		stubProbe{source: SourceManifest},
		stubProbe{source: SourceEnv, spec: "lts/iron"},
	)
	got := d.Detect(context.Background(), versions.Latest)
	if !got.Spec.Equal(versions.NamedLTS("iron")) || got.Source != SourceEnv {
		t.Errorf("Detect() = %v from %v", got.Spec, got.Source)
	}
}

func TestPinFileWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, PinFileName), "# comment\n\nv20.10\n")
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	f, ok, err := PinFile{Dir: nested}.Probe(context.Background())
	if err != nil || !ok {
		t.Fatalf("Probe() = %v, %v", ok, err)
	}
	if f.Spec.String() != "20.10.x" {
		t.Errorf("spec = %v, want 20.10.x", f.Spec)
	}
	if f.Origin != filepath.Join(root, PinFileName) {
		t.Errorf("origin = %s", f.Origin)
	}
}

func TestPinFileWithoutValidLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, PinFileName), "# nothing here\n")
	if _, ok, err := (PinFile{Dir: dir}).Probe(context.Background()); ok || err == nil {
		t.Errorf("Probe() = %v, %v; want no opinion with error", ok, err)
	}
}

func TestManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
		wantErr bool
	}{
		{"range", `{"name": "app", "engines": {"node": ">=18 <21"}}`, ">=18 <21", true, false},
		{"no engines", `{"name": "app"}`, "", false, false},
		{"codename is not a range", `{"engines": {"node": "hydrogen"}}`, "", false, true},
		{"number", `{"engines": {"node": 18}}`, "", false, true},
		{"invalid json", `{"engines": `, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ManifestName), tt.content)
			f, ok, err := Manifest{Dir: dir}.Probe(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && f.Spec.String() != tt.want {
				t.Errorf("spec = %v, want %s", f.Spec, tt.want)
			}
		})
	}
}

func TestEnv(t *testing.T) {
	if _, ok, _ := envOf(nil).Probe(context.Background()); ok {
		t.Error("unset variable should have no opinion")
	}
	if _, ok, err := envOf(map[string]string{EnvVar: "!!"}).Probe(context.Background()); ok || err == nil {
		t.Errorf("invalid value: ok=%v err=%v", ok, err)
	}

	t.Setenv(EnvVar, "latest")
	f, ok, err := Env{}.Probe(context.Background())
	if err != nil || !ok || !f.Spec.Equal(versions.Latest) {
		t.Errorf("Probe() = %v, %v, %v", f.Spec, ok, err)
	}
}
