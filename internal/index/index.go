package index

import (
	"sync"

	"github.com/vk/mgmtgrid/internal/invoker"
	"github.com/vk/mgmtgrid/internal/namehash"
)

// Attribute is the global record of one attribute key. A zero Getter or
// Setter means the attribute is not readable or not writable.
type Attribute struct {
	Name     string
	Poppable bool
	Getter   invoker.Invoker
	Setter   invoker.Invoker
}

func (a *Attribute) Readable() bool { return a.Getter.Valid() }
func (a *Attribute) Writable() bool { return a.Setter.Valid() }

// Operation is the global record of one operation key.
type Operation struct {
	Name      string
	Signature string
	Invoker   invoker.Invoker
}

// Target binds keys to the object that currently serves them. Owner is the
// logical name of that object.
type Target struct {
	Owner string
	Value any
}

// Batch is everything one object contributes to the index.
type Batch struct {
	Target     *Target
	Attributes map[namehash.Key]*Attribute
	Operations map[namehash.Key]*Operation
}

// Index is the global attribute/operation/target map. Attributes and
// operations are separate key spaces, each with its own target bindings, so
// an attribute named "x()" and an operation x with signature "()" never
// share an entry.
type Index struct {
	attrs       sync.Map // namehash.Key -> *Attribute
	ops         sync.Map // namehash.Key -> *Operation
	attrTargets sync.Map // namehash.Key -> *Target
	opTargets   sync.Map // namehash.Key -> *Target
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Attribute loads the attribute record and its target for k.
func (ix *Index) Attribute(k namehash.Key) (*Attribute, *Target, bool) {
	a, ok := ix.attrs.Load(k)
	if !ok {
		return nil, nil, false
	}
	t, ok := ix.attrTargets.Load(k)
	if !ok {
		// Insert stores targets first and Delete removes them last, so this
		// only happens while a batch is being removed.
		return nil, nil, false
	}
	return a.(*Attribute), t.(*Target), true
}

// Operation loads the operation record and its target for k.
func (ix *Index) Operation(k namehash.Key) (*Operation, *Target, bool) {
	o, ok := ix.ops.Load(k)
	if !ok {
		return nil, nil, false
	}
	t, ok := ix.opTargets.Load(k)
	if !ok {
		return nil, nil, false
	}
	return o.(*Operation), t.(*Target), true
}

// AttributeTarget loads the target currently serving attribute k.
func (ix *Index) AttributeTarget(k namehash.Key) (*Target, bool) {
	return loadTarget(&ix.attrTargets, k)
}

// OperationTarget loads the target currently serving operation k.
func (ix *Index) OperationTarget(k namehash.Key) (*Target, bool) {
	return loadTarget(&ix.opTargets, k)
}

func loadTarget(m *sync.Map, k namehash.Key) (*Target, bool) {
	t, ok := m.Load(k)
	if !ok {
		return nil, false
	}
	return t.(*Target), true
}

// Conflicts returns the keys of b that are already present in the index,
// attributes first.
func (ix *Index) Conflicts(b Batch) []namehash.Key {
	var taken []namehash.Key
	for k := range b.Attributes {
		if _, ok := ix.attrTargets.Load(k); ok {
			taken = append(taken, k)
		}
	}
	for k := range b.Operations {
		if _, ok := ix.opTargets.Load(k); ok {
			taken = append(taken, k)
		}
	}
	return taken
}

// Insert stores every entry of b, overwriting existing keys. Callers that
// must not overwrite check Conflicts first under the same lock.
func (ix *Index) Insert(b Batch) {
	for k, a := range b.Attributes {
		ix.attrTargets.Store(k, b.Target)
		ix.attrs.Store(k, a)
	}
	for k, o := range b.Operations {
		ix.opTargets.Store(k, b.Target)
		ix.ops.Store(k, o)
	}
}

// Delete removes the entries of b that still hold b's pointers and returns
// how many keys it removed.
func (ix *Index) Delete(b Batch) int {
	removed := 0
	for k, a := range b.Attributes {
		if ix.attrs.CompareAndDelete(k, a) {
			removed++
		}
		ix.attrTargets.CompareAndDelete(k, b.Target)
	}
	for k, o := range b.Operations {
		if ix.ops.CompareAndDelete(k, o) {
			removed++
		}
		ix.opTargets.CompareAndDelete(k, b.Target)
	}
	return removed
}

// Owns reports whether every entry of b is the one currently indexed.
func (ix *Index) Owns(b Batch) bool {
	for k, a := range b.Attributes {
		if v, ok := ix.attrs.Load(k); !ok || v != a {
			return false
		}
		if t, ok := ix.attrTargets.Load(k); !ok || t != b.Target {
			return false
		}
	}
	for k, o := range b.Operations {
		if v, ok := ix.ops.Load(k); !ok || v != o {
			return false
		}
		if t, ok := ix.opTargets.Load(k); !ok || t != b.Target {
			return false
		}
	}
	return true
}

// RangeAttributes calls fn for every indexed attribute until fn returns false.
func (ix *Index) RangeAttributes(fn func(namehash.Key, *Attribute) bool) {
	ix.attrs.Range(func(k, v any) bool {
		return fn(k.(namehash.Key), v.(*Attribute))
	})
}

// RangeOperations calls fn for every indexed operation until fn returns false.
func (ix *Index) RangeOperations(fn func(namehash.Key, *Operation) bool) {
	ix.ops.Range(func(k, v any) bool {
		return fn(k.(namehash.Key), v.(*Operation))
	})
}

// RangeAttributeTargets calls fn for every attribute key bound to a target
// until fn returns false.
func (ix *Index) RangeAttributeTargets(fn func(namehash.Key, *Target) bool) {
	ix.attrTargets.Range(func(k, v any) bool {
		return fn(k.(namehash.Key), v.(*Target))
	})
}

// RangeOperationTargets is RangeAttributeTargets for operation keys.
func (ix *Index) RangeOperationTargets(fn func(namehash.Key, *Target) bool) {
	ix.opTargets.Range(func(k, v any) bool {
		return fn(k.(namehash.Key), v.(*Target))
	})
}

// Stats counts the indexed entries. Targets counts bindings of both kinds.
type Stats struct {
	Attributes int
	Operations int
	Targets    int
}

// Stats walks the maps and counts their entries. It is not a snapshot when
// writers are active.
func (ix *Index) Stats() Stats {
	var s Stats
	ix.attrs.Range(func(_, _ any) bool { s.Attributes++; return true })
	ix.ops.Range(func(_, _ any) bool { s.Operations++; return true })
	ix.attrTargets.Range(func(_, _ any) bool { s.Targets++; return true })
	ix.opTargets.Range(func(_, _ any) bool { s.Targets++; return true })
	return s
}

// Reset drops every entry.
func (ix *Index) Reset() {
	ix.attrs.Clear()
	ix.ops.Clear()
	ix.attrTargets.Clear()
	ix.opTargets.Clear()
}
