package registry

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/index"
	"github.com/vk/mgmtgrid/internal/invoker"
	"github.com/vk/mgmtgrid/internal/namehash"
)

// SlotState is the lifecycle state of one attribute slot.
type SlotState int

const (
	// Unregistered slots belong to objects that are not (or no longer) indexed.
	Unregistered SlotState = iota
	// Registered slots are indexed and readable/writable as declared.
	Registered
	// Popped slots have their current value registered as a sub-object.
	Popped
)

func (s SlotState) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	case Popped:
		return "popped"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// Slot is an object's record of one attribute. Its state is guarded by the
// registry mutex.
type Slot struct {
	attr   *index.Attribute
	state  SlotState
	popped *Object
}

// identity is how targets are told apart: pointer-shaped values by type and
// address.
type identity struct {
	typ reflect.Type
	ptr uintptr
}

func identityOf(target any) (identity, error) {
	if target == nil {
		return identity{}, fmt.Errorf("%w: nil target", ErrExtraction)
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return identity{}, fmt.Errorf("%w: nil %T", ErrExtraction, target)
		}
		return identity{typ: v.Type(), ptr: v.Pointer()}, nil
	default:
		return identity{}, fmt.Errorf("%w: %T has no identity, register a pointer", ErrExtraction, target)
	}
}

// isNil reports whether v is nil or a nil pointer-shaped value.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer, reflect.Interface, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// Object is one registered target with its local attribute and operation
// maps. The maps are keyed by the same hashes as the global index.
type Object struct {
	name    string
	root    bool
	target  any
	id      identity
	desc    *descriptor.Descriptor
	attrs   map[namehash.Key]*Slot
	ops     map[namehash.Key]*index.Operation
	skipped []string
	// binding is fixed at creation and read without the registry lock.
	binding *index.Target
	// live is set once the object is fully indexed and cleared on removal.
	live atomic.Bool

	// poppedFrom is the slot whose Pop registered this object.
	poppedFrom *Slot
}

// newObject describes target and compiles its invokers. An empty name makes
// the object the root of the registry. Nothing is indexed here.
func newObject(r *Registry, target any, name string) (*Object, error) {
	id, err := identityOf(target)
	if err != nil {
		return nil, err
	}
	d, err := r.source.Describe(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ErrExtraction, target, err)
	}

	o := &Object{
		name:   name,
		target: target,
		id:     id,
		attrs:  make(map[namehash.Key]*Slot, len(d.Attributes)),
		ops:    make(map[namehash.Key]*index.Operation, len(d.Operations)),
	}
	if name == "" {
		o.root = true
		o.name = r.ownerID
	}
	o.binding = &index.Target{Owner: o.name, Value: target}

	kept := &descriptor.Descriptor{Type: d.Type}
	for _, spec := range d.Attributes {
		a := &index.Attribute{Name: spec.Name, Poppable: spec.Poppable}
		if spec.Readable() {
			if a.Getter, err = r.bind(spec.Getter, target, spec.Name); err != nil {
				o.skip(r, "attribute", spec.Name, err)
				continue
			}
		}
		if spec.Writable() {
			if a.Setter, err = r.bind(spec.Setter, target, spec.Name); err != nil {
				o.skip(r, "attribute", spec.Name, err)
				continue
			}
		}
		k := namehash.Of(spec.Name)
		_, taken := o.attrs[k]
		if err := o.claim(r, taken, k, spec.Name); err != nil {
			return nil, err
		}
		o.attrs[k] = &Slot{attr: a}
		kept.Attributes = append(kept.Attributes, spec)
	}

	for _, spec := range d.Operations {
		inv, err := r.bind(spec.Method, target, spec.Name)
		if err != nil {
			o.skip(r, "operation", spec.Name+spec.Signature(), err)
			continue
		}
		k := spec.Key()
		_, taken := o.ops[k]
		if err := o.claim(r, taken, k, spec.Name+spec.Signature()); err != nil {
			return nil, err
		}
		o.ops[k] = &index.Operation{Name: spec.Name, Signature: spec.Signature(), Invoker: inv}
		kept.Operations = append(kept.Operations, spec)
	}

	o.desc = kept
	if !o.root {
		o.remap(name)
	}
	return o, nil
}

// claim rejects a key that is already taken among the object's entries of
// the same kind when collision checks are on. Without them the later entry
// silently replaces the earlier one.
func (o *Object) claim(r *Registry, taken bool, k namehash.Key, name string) error {
	if !r.collisionCheck {
		return nil
	}
	if taken {
		return fmt.Errorf("%w: %T: %q hashes to an existing key %s", ErrNameCollision, o.target, name, k)
	}
	return nil
}

func (o *Object) skip(r *Registry, kind, name string, err error) {
	r.logger.Warn("Skipping uncompilable method.", "object", o.name, "kind", kind, "name", name, "error", err)
	o.skipped = append(o.skipped, name)
}

// remap prefixes every local name and moves each entry from the hash of its
// old name to the hash of the prefixed one.
func (o *Object) remap(prefix string) {
	attrs := make(map[namehash.Key]*Slot, len(o.attrs))
	for old, s := range o.attrs {
		s.attr.Name = prefix + s.attr.Name
		s.attr.Getter = s.attr.Getter.Named(s.attr.Name)
		s.attr.Setter = s.attr.Setter.Named(s.attr.Name)
		attrs[namehash.Of(s.attr.Name)] = s
		delete(o.attrs, old)
	}
	o.attrs = attrs

	ops := make(map[namehash.Key]*index.Operation, len(o.ops))
	for old, op := range o.ops {
		op.Name = prefix + op.Name
		op.Invoker = op.Invoker.Named(op.Name)
		ops[namehash.Operation(op.Name, op.Signature)] = op
		delete(o.ops, old)
	}
	o.ops = ops

	for i, name := range o.skipped {
		o.skipped[i] = prefix + name
	}
	o.desc = o.desc.Prefixed(prefix)
}

func (o *Object) batch() index.Batch {
	attrs := make(map[namehash.Key]*index.Attribute, len(o.attrs))
	for k, s := range o.attrs {
		attrs[k] = s.attr
	}
	return index.Batch{Target: o.binding, Attributes: attrs, Operations: o.ops}
}

func (o *Object) setState(state SlotState) {
	for _, s := range o.attrs {
		s.state = state
		s.popped = nil
	}
}

// clear removes the object's entries from ix and releases the target. It is
// safe to call more than once.
func (o *Object) clear(ix *index.Index) {
	if o.target == nil {
		return
	}
	o.live.Store(false)
	ix.Delete(o.batch())
	o.setState(Unregistered)
	clear(o.attrs)
	clear(o.ops)
	o.target = nil
}

// Name is the logical name; the owner ID for the root.
func (o *Object) Name() string { return o.name }

func (o *Object) IsRoot() bool { return o.root }

// Target is the registered value, or nil once the object has been removed.
// It is safe to call while the registry changes.
func (o *Object) Target() any {
	if !o.live.Load() {
		return nil
	}
	return o.binding.Value
}

// Descriptor is the effective, possibly prefixed, management surface.
func (o *Object) Descriptor() *descriptor.Descriptor { return o.desc }

// Skipped lists attributes and operations dropped because their methods
// could not be compiled.
func (o *Object) Skipped() []string { return append([]string(nil), o.skipped...) }

// bind compiles ref and binds the template to target.
func (r *Registry) bind(ref invoker.MethodRef, target any, name string) (invoker.Invoker, error) {
	tmpl, err := r.compiler.Compile(ref)
	if err != nil {
		return invoker.Invoker{}, err
	}
	return tmpl.Bind(target).Named(name), nil
}
