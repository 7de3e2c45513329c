package catalog

import (
	"github.com/matzehuels/noderig/pkg/versions"
)

// Resolve maps spec to a concrete release of the catalog.
//
// Latest yields the greatest release; LatestLTS the greatest of the newest
// releases of every LTS line; a named LTS the newest release of that line
// (UnknownVersion if the codename is not known); a range the greatest
// matching release (Unfulfillable if none matches).
func Resolve(spec versions.Spec, c *Catalog) (versions.Release, error) {
	switch spec.Kind() {
	case versions.KindLatest:
		if r, ok := c.Latest(); ok {
			return r, nil
		}
		return versions.Release{}, versions.UnknownVersionError(spec.String())
	case versions.KindLatestLTS:
		if r, ok := c.LatestLTS(); ok {
			return r, nil
		}
		return versions.Release{}, versions.UnknownVersionError(spec.String())
	case versions.KindNamedLTS:
		if r, ok := c.LTS(spec.Name()); ok {
			return r, nil
		}
		return versions.Release{}, versions.UnknownVersionError(spec.Name())
	case versions.KindRange:
		if r, ok := c.Fulfilling(spec); ok {
			return r, nil
		}
		return versions.Release{}, versions.UnfulfillableError(spec)
	default:
		return versions.Release{}, versions.UnknownVersionError(spec.String())
	}
}

// ResolveLocal maps spec to an installed release.
//
// Latest and LatestLTS are rejected with Unsupported: they describe the full
// release universe, and callers holding only local data must fall back to
// the catalog explicitly.
func ResolveLocal(spec versions.Spec, inv *Inventory) (versions.Release, error) {
	switch spec.Kind() {
	case versions.KindLatest, versions.KindLatestLTS:
		return versions.Release{}, versions.UnsupportedError(spec)
	case versions.KindNamedLTS:
		if r, ok := inv.LTS(spec.Name()); ok {
			return r, nil
		}
		return versions.Release{}, versions.UnknownVersionError(spec.Name())
	case versions.KindRange:
		if r, ok := inv.Fulfilling(spec); ok {
			return r, nil
		}
		return versions.Release{}, versions.UnfulfillableError(spec)
	default:
		return versions.Release{}, versions.UnsupportedError(spec)
	}
}
