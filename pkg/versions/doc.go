// Package versions defines the value types shared by every part of noderig:
// numeric Node.js versions, upstream release metadata and the version
// selectors ("specs") users write in pin files, manifests, the environment
// and the configuration file.
//
// # Specs
//
// A [Spec] is one of four forms:
//
//   - latest: the newest known release
//   - lts (or lts/*): the newest release of any LTS line
//   - a codename such as hydrogen or lts/hydrogen: the newest release of that LTS line
//   - a semver range such as 18, ^18.2, >=16 <20 or v20.1.0
//
// Parsing is case-insensitive. Bare numeric partial versions are normalized
// to the equivalent wildcard range ("18" becomes "18.x"), so formatting a
// parsed spec and parsing it again always yields an equal spec.
//
// # Errors
//
// Resolution failures are reported as [*Error] values that keep the user's
// input verbatim. Use [IsKind] to branch on the failure kind:
//
//	if versions.IsKind(err, versions.Unsupported) {
//	    // fall back to the full release catalog
//	}
package versions
