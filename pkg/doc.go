// Package pkg provides the libraries behind noderig, a Node.js version
// manager.
//
// # Overview
//
// noderig installs Node.js releases side by side and routes every call to
// node, npm, npx and globally installed tools through small shim scripts.
// A shim runs "noderig exec", which picks the version for the working
// directory and runs the real executable from that version.
//
// The packages are layered:
//
//  1. [versions] - Version and VersionSpec values and resolution errors
//  2. [catalog] - The remote release catalog, the installed inventory and
//     their on-disk caches
//  3. [config] - The TOML user configuration and shared access to it
//  4. [detect] - Finding the version spec for a directory
//  5. [mapper] - Shim reconciliation and exec
//  6. [nodedist] and [archive] - Downloading and unpacking releases
//  7. [manager] - The operations the CLI exposes, built from the above
//
// # Data Flow
//
//	.node-version / package.json / NODE_VERSION / default
//	         ↓
//	    [detect] package (pick a VersionSpec)
//	         ↓
//	    [catalog] package (resolve to a Release)
//	         ↓
//	    [mapper] package (shims and exec)
//
// Supporting packages are [paths] for the on-disk layout, [httputil] for
// retries, [observability] for hooks and [buildinfo] for version metadata.
package pkg
