// Package detect determines which Node.js version spec is active for a
// working directory.
//
// Three probes look at independent signals:
//
//   - [PinFile] reads the nearest .node-version file.
//   - [Manifest] reads engines.node from the nearest package.json.
//   - [Env] reads the NODE_VERSION environment variable.
//
// A [Detector] runs all of them concurrently, waits for every one and then
// picks a result by the fixed order above. A probe that fails or finds
// nothing has no opinion. When no probe has an opinion the configured
// default applies.
package detect

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/noderig/pkg/versions"
)

// Source identifies where a detected spec came from.
type Source int

const (
	SourceDefault Source = iota
	SourcePinFile
	SourceManifest
	SourceEnv
)

func (s Source) String() string {
	switch s {
	case SourcePinFile:
		return "pin file"
	case SourceManifest:
		return "package manifest"
	case SourceEnv:
		return "environment"
	default:
		return "config default"
	}
}

// Finding is one probe's opinion.
type Finding struct {
	Spec   versions.Spec
	Source Source
	Origin string // file path or variable name; empty for the default
}

// Probe inspects one signal. It returns ok=false when it has no opinion.
type Probe interface {
	Source() Source
	Probe(ctx context.Context) (Finding, bool, error)
}

// Detector combines probes by priority.
type Detector struct {
	probes []Probe
	logger *log.Logger
}

// New returns a detector. Probes are consulted in the order given, so the
// first probe has the highest priority.
func New(logger *log.Logger, probes ...Probe) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{probes: probes, logger: logger}
}

// ForDir returns the standard detector for dir.
func ForDir(dir string, logger *log.Logger) *Detector {
	return New(logger, PinFile{Dir: dir}, Manifest{Dir: dir}, Env{})
}

// Detect runs every probe and returns the highest-priority finding, or def
// with SourceDefault.
func (d *Detector) Detect(ctx context.Context, def versions.Spec) Finding {
	findings := make([]*Finding, len(d.probes))

	var g errgroup.Group
	for i, p := range d.probes {
		g.Go(func() error {
			f, ok, err := p.Probe(ctx)
			if err != nil {
				d.logger.Debug("version probe failed", "source", p.Source(), "error", err)
				return nil
			}
			if ok {
				findings[i] = &f
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range findings {
		if f != nil {
			d.logger.Debug("detected version", "spec", f.Spec, "source", f.Source, "origin", f.Origin)
			return *f
		}
	}
	return Finding{Spec: def, Source: SourceDefault}
}
