// Package index provides the global, flattened lookup structure of a
// management registry.
//
// # Purpose
//
// Every attribute and operation of every registered object is reachable from
// here by its namehash key in a single map load. The registry keeps a local
// copy of the same entries per object; this package only holds the shared,
// process-visible view.
//
// # Concurrency Model
//
// The index is built on four sync.Maps: attributes and operations, each with
// its own map of target bindings.
//
//   - Reads are lock-free and never block, which is the steady-state traffic
//     of a management client.
//   - Writes happen in batches, one per registered object. The registry
//     serializes batches under its own mutex; the index does not lock.
//   - Deletes are compare-and-delete, so removing an object never removes an
//     entry that another object has since overwritten.
//
// Entries are pointers and are compared by identity. The registry stores the
// same pointer in its local map and here, which is what Index.Owns checks.
package index
