package catalog

import (
	"slices"
	"strings"

	"github.com/matzehuels/noderig/pkg/versions"
)

// Catalog is the index of all known upstream releases.
//
// sorted always holds exactly the keys of byVersion in ascending order. It is
// derived data and is rebuilt instead of persisted.
type Catalog struct {
	ltsMajors map[string]uint64
	byVersion map[versions.Version]versions.Release
	sorted    []versions.Version
}

// New builds a catalog from a release list. LTS codenames are lower-cased.
func New(releases []versions.Release) *Catalog {
	c := &Catalog{
		ltsMajors: make(map[string]uint64),
		byVersion: make(map[versions.Version]versions.Release, len(releases)),
	}
	for _, r := range releases {
		if r.LTS != "" {
			r.LTS = strings.ToLower(r.LTS)
			c.ltsMajors[r.LTS] = r.Version.Major
		}
		c.byVersion[r.Version] = r
	}
	c.buildIndex()
	return c
}

func (c *Catalog) buildIndex() {
	c.sorted = make([]versions.Version, 0, len(c.byVersion))
	for v := range c.byVersion {
		c.sorted = append(c.sorted, v)
	}
	slices.SortFunc(c.sorted, versions.Version.Compare)
}

// Len returns the number of releases.
func (c *Catalog) Len() int { return len(c.sorted) }

// sortedVersions returns all release versions in ascending order.
func (c *Catalog) sortedVersions() []versions.Version {
	return slices.Clone(c.sorted)
}

// Releases returns all releases in ascending version order.
func (c *Catalog) Releases() []versions.Release {
	out := make([]versions.Release, len(c.sorted))
	for i, v := range c.sorted {
		out[i] = c.byVersion[v]
	}
	return out
}

// Get returns the release for an exact version.
func (c *Catalog) Get(v versions.Version) (versions.Release, bool) {
	r, ok := c.byVersion[v]
	return r, ok
}

// LTSMajor returns the major version of the named LTS line.
func (c *Catalog) LTSMajor(name string) (uint64, bool) {
	m, ok := c.ltsMajors[strings.ToLower(name)]
	return m, ok
}

// LTSNames returns the known LTS codenames, newest line first.
func (c *Catalog) LTSNames() []string {
	names := make([]string, 0, len(c.ltsMajors))
	for n := range c.ltsMajors {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c.ltsMajors[a] != c.ltsMajors[b] {
			if c.ltsMajors[a] > c.ltsMajors[b] {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return names
}

// Latest returns the greatest known release.
func (c *Catalog) Latest() (versions.Release, bool) {
	if len(c.sorted) == 0 {
		return versions.Release{}, false
	}
	return c.byVersion[c.sorted[len(c.sorted)-1]], true
}

// LatestLTS returns the greatest release among the newest releases of every
// LTS line.
func (c *Catalog) LatestLTS() (versions.Release, bool) {
	var (
		best  versions.Release
		found bool
	)
	for _, major := range c.ltsMajors {
		r, ok := c.latestForMajor(major)
		if !ok {
			continue
		}
		if !found || best.Version.Less(r.Version) {
			best, found = r, true
		}
	}
	return best, found
}

// LTS returns the newest release of the named LTS line.
func (c *Catalog) LTS(name string) (versions.Release, bool) {
	major, ok := c.LTSMajor(name)
	if !ok {
		return versions.Release{}, false
	}
	return c.latestForMajor(major)
}

// Fulfilling returns the greatest release matching a range spec.
func (c *Catalog) Fulfilling(spec versions.Spec) (versions.Release, bool) {
	for i := len(c.sorted) - 1; i >= 0; i-- {
		if spec.Matches(c.sorted[i]) {
			return c.byVersion[c.sorted[i]], true
		}
	}
	return versions.Release{}, false
}

func (c *Catalog) latestForMajor(major uint64) (versions.Release, bool) {
	for i := len(c.sorted) - 1; i >= 0; i-- {
		if c.sorted[i].Major == major {
			return c.byVersion[c.sorted[i]], true
		}
	}
	return versions.Release{}, false
}

// Resolve resolves spec against the catalog. See [Resolve].
func (c *Catalog) Resolve(spec versions.Spec) (versions.Release, error) {
	return Resolve(spec, c)
}
