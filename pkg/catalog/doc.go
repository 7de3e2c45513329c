// Package catalog indexes Node.js releases and resolves version specs
// against them.
//
// Two collections share the same resolution rules:
//
//   - [Catalog]: every release published upstream, built from the
//     distribution index and cached on disk by [CatalogStore].
//   - [Inventory]: the releases physically installed on this machine,
//     persisted by [InventoryStore] independently of the catalog so that
//     resolution works offline.
//
// Whenever several releases qualify, the numerically greatest wins.
//
// Both stores write a compact CBOR blob. A blob that fails to decode is
// deleted and treated as absent; corruption is never reported as an error.
package catalog
