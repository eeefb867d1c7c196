// Package registry is the managed object registry: the single place where
// management names resolve to live target/invoker pairs.
//
// Objects are registered with Put (the root, whose names are used as-is) or
// PutNamed (a sub-object, whose names are prefixed with its name). Each
// object keeps local maps of its attribute and operation invokers, and the
// registry mirrors every local entry into one global index so that Getter,
// Setter and Operation are a single lock-free map load.
//
// Poppable attributes are lazy factories: Pop registers the attribute's
// current value as a sub-object, Unpop removes it again.
package registry
