package catalog

import (
	"slices"
	"strings"

	"github.com/matzehuels/noderig/pkg/versions"
)

// Inventory is the ordered set of locally installed releases. Entries are
// kept in ascending version order with at most one entry per version.
type Inventory struct {
	entries []versions.Release
}

// NewInventory builds an inventory from releases in any order. Duplicates
// collapse to the one listed last.
func NewInventory(releases ...versions.Release) *Inventory {
	inv := &Inventory{entries: slices.Clone(releases)}
	inv.normalize()
	return inv
}

// Insert adds a release, replacing any entry with the same version.
func (i *Inventory) Insert(r versions.Release) {
	i.entries = append(i.entries, r)
	i.normalize()
}

// normalize sorts entries by version and keeps the last-written entry of
// every run of equal versions.
func (i *Inventory) normalize() {
	slices.SortStableFunc(i.entries, func(a, b versions.Release) int {
		return a.Version.Compare(b.Version)
	})
	out := i.entries[:0]
	for idx, r := range i.entries {
		if idx+1 < len(i.entries) && i.entries[idx+1].Version == r.Version {
			continue
		}
		out = append(out, r)
	}
	i.entries = out
}

// Remove deletes the entry for v, keeping the order of the rest. It reports
// whether an entry was removed.
func (i *Inventory) Remove(v versions.Version) bool {
	before := len(i.entries)
	i.entries = slices.DeleteFunc(i.entries, func(r versions.Release) bool {
		return r.Version == v
	})
	return len(i.entries) != before
}

// Len returns the number of installed releases.
func (i *Inventory) Len() int { return len(i.entries) }

// All returns the installed versions in ascending order.
func (i *Inventory) All() []versions.Version {
	out := make([]versions.Version, len(i.entries))
	for idx, r := range i.entries {
		out[idx] = r.Version
	}
	return out
}

// Releases returns the installed releases in ascending order.
func (i *Inventory) Releases() []versions.Release {
	return slices.Clone(i.entries)
}

// Get returns the entry for an exact version.
func (i *Inventory) Get(v versions.Version) (versions.Release, bool) {
	for _, r := range i.entries {
		if r.Version == v {
			return r, true
		}
	}
	return versions.Release{}, false
}

// Contains reports whether v is installed.
func (i *Inventory) Contains(v versions.Version) bool {
	_, ok := i.Get(v)
	return ok
}

// Latest returns the greatest installed release.
func (i *Inventory) Latest() (versions.Release, bool) {
	if len(i.entries) == 0 {
		return versions.Release{}, false
	}
	return i.entries[len(i.entries)-1], true
}

// LatestLTS returns the greatest installed LTS release.
func (i *Inventory) LatestLTS() (versions.Release, bool) {
	return i.last(func(r versions.Release) bool { return r.IsLTS() })
}

// LTS returns the greatest installed release of the named LTS line.
func (i *Inventory) LTS(name string) (versions.Release, bool) {
	name = strings.ToLower(name)
	return i.last(func(r versions.Release) bool { return r.LTS == name })
}

// Fulfilling returns the greatest installed release matching a range spec.
func (i *Inventory) Fulfilling(spec versions.Spec) (versions.Release, bool) {
	return i.last(func(r versions.Release) bool { return spec.Matches(r.Version) })
}

func (i *Inventory) last(pred func(versions.Release) bool) (versions.Release, bool) {
	for idx := len(i.entries) - 1; idx >= 0; idx-- {
		if pred(i.entries[idx]) {
			return i.entries[idx], true
		}
	}
	return versions.Release{}, false
}

// Resolve resolves spec against installed releases only. See [ResolveLocal].
func (i *Inventory) Resolve(spec versions.Spec) (versions.Release, error) {
	return ResolveLocal(spec, i)
}
