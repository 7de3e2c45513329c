package detect

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/noderig/pkg/versions"
)

const (
	PinFileName  = ".node-version"
	ManifestName = "package.json"
	EnvVar       = "NODE_VERSION"
)

// PinFile reads the nearest .node-version at or above Dir. The first line
// that parses as a spec wins.
type PinFile struct {
	Dir string
}

func (PinFile) Source() Source { return SourcePinFile }

func (p PinFile) Probe(ctx context.Context) (Finding, bool, error) {
	path, ok := findUp(p.Dir, PinFileName)
	if !ok {
		return Finding{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Finding{}, false, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if ctx.Err() != nil {
			return Finding{}, false, ctx.Err()
		}
		spec, err := versions.ParseSpec(sc.Text())
		if err == nil {
			return Finding{Spec: spec, Source: SourcePinFile, Origin: path}, true, nil
		}
	}
	return Finding{}, false, fmt.Errorf("%s: no valid version spec", path)
}

// Manifest reads engines.node from the nearest package.json at or above Dir.
// Only semver ranges are accepted there.
type Manifest struct {
	Dir string
}

func (Manifest) Source() Source { return SourceManifest }

func (m Manifest) Probe(ctx context.Context) (Finding, bool, error) {
	path, ok := findUp(m.Dir, ManifestName)
	if !ok {
		return Finding{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Finding{}, false, err
	}
	if !gjson.ValidBytes(data) {
		return Finding{}, false, fmt.Errorf("%s: invalid JSON", path)
	}
	field := gjson.GetBytes(data, "engines.node")
	if !field.Exists() {
		return Finding{}, false, nil
	}
	if field.Type != gjson.String {
		return Finding{}, false, fmt.Errorf("%s: engines.node is not a string", path)
	}
	spec, err := versions.ParseSpec(field.String())
	if err != nil {
		return Finding{}, false, fmt.Errorf("%s: %w", path, err)
	}
	if spec.Kind() != versions.KindRange {
		return Finding{}, false, fmt.Errorf("%s: engines.node %q is not a semver range", path, field.String())
	}
	return Finding{Spec: spec, Source: SourceManifest, Origin: path}, true, nil
}

// Env reads NODE_VERSION. Lookup defaults to os.LookupEnv.
type Env struct {
	Lookup func(string) (string, bool)
}

func (Env) Source() Source { return SourceEnv }

func (e Env) Probe(context.Context) (Finding, bool, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw, ok := lookup(EnvVar)
	if !ok || raw == "" {
		return Finding{}, false, nil
	}
	spec, err := versions.ParseSpec(raw)
	if err != nil {
		return Finding{}, false, fmt.Errorf("%s: %w", EnvVar, err)
	}
	return Finding{Spec: spec, Source: SourceEnv, Origin: EnvVar}, true, nil
}

// findUp looks for name in dir and each of its parents.
func findUp(dir, name string) (string, bool) {
	if dir == "" {
		return "", false
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
