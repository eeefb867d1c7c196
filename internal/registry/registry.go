package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/index"
	"github.com/vk/mgmtgrid/internal/invoker"
	"github.com/vk/mgmtgrid/internal/namehash"
)

// DefaultPopSeparator is appended to an attribute name to form the name of
// the sub-object registered by Pop.
const DefaultPopSeparator = "."

// Options configures a Registry. Start from DefaultOptions.
type Options struct {
	// OwnerID names the root object. Empty means "mgmtgrid-<uuid>".
	OwnerID string
	// Source describes targets. Nil means descriptor.Reflective.
	Source descriptor.Source
	// Compiler is shared between registries. Nil creates a private one.
	Compiler *invoker.Compiler
	Logger   *slog.Logger
	// CollisionCheck rejects objects whose keys are already indexed. When
	// off, the last writer wins.
	CollisionCheck bool
	// PopSeparator is appended to the name of a popped attribute. Nil means
	// DefaultPopSeparator; an empty string names the sub-object after the
	// attribute alone.
	PopSeparator *string
}

// DefaultOptions returns the options New uses for zero fields, with
// collision checks on.
func DefaultOptions() Options {
	sep := DefaultPopSeparator
	return Options{CollisionCheck: true, PopSeparator: &sep}
}

// Module is one kind of built-in component. Register declares the
// management surface of its types before any instance exists; New builds an
// instance, calling decode to fill its argument struct from configuration.
type Module interface {
	Kind() string
	Register(c *descriptor.Catalog) error
	New(ctx context.Context, decode func(args any) error) (any, error)
}

// Registry owns every managed object of one owner and the global index that
// dispatch goes through.
type Registry struct {
	ownerID        string
	source         descriptor.Source
	compiler       *invoker.Compiler
	logger         *slog.Logger
	collisionCheck bool
	popSeparator   string

	// mu serializes structural changes. Reads go through the sync.Maps and
	// the index without it.
	mu       sync.Mutex
	byName   sync.Map // namehash.Key -> *Object
	byTarget sync.Map // identity -> *Object
	index    *index.Index
}

// New creates an empty registry.
func New(opts Options) *Registry {
	if opts.OwnerID == "" {
		opts.OwnerID = "mgmtgrid-" + uuid.NewString()
	}
	if opts.Source == nil {
		opts.Source = descriptor.Reflective{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Compiler == nil {
		opts.Compiler = invoker.NewCompiler(opts.Logger)
	}
	sep := DefaultPopSeparator
	if opts.PopSeparator != nil {
		sep = *opts.PopSeparator
	}
	return &Registry{
		ownerID:        opts.OwnerID,
		source:         opts.Source,
		compiler:       opts.Compiler,
		logger:         opts.Logger.With("component", "registry", "owner", opts.OwnerID),
		collisionCheck: opts.CollisionCheck,
		popSeparator:   sep,
		index:          index.New(),
	}
}

func (r *Registry) OwnerID() string { return r.ownerID }

func (r *Registry) Compiler() *invoker.Compiler { return r.compiler }

func (r *Registry) PopSeparator() string { return r.popSeparator }

// Put registers target as the root object. If target is already registered
// its stored descriptor is returned and nothing changes.
func (r *Registry) Put(target any) (*descriptor.Descriptor, error) {
	o, _, err := r.put(target, "")
	if err != nil {
		return nil, err
	}
	return o.desc, nil
}

// PutNamed registers target as a sub-object whose names are prefixed with
// name. It returns nil, nil if target is already registered.
func (r *Registry) PutNamed(target any, name string) (*descriptor.Descriptor, error) {
	o, existing, err := r.put(target, name)
	if err != nil || existing {
		return nil, err
	}
	return o.desc, nil
}

func (r *Registry) put(target any, name string) (*Object, bool, error) {
	id, err := identityOf(target)
	if err != nil {
		return nil, false, err
	}
	if v, ok := r.byTarget.Load(id); ok && v.(*Object).live.Load() {
		return v.(*Object), true, nil
	}

	// Describing and compiling happen outside the lock; only the insert is
	// serialized.
	o, err := newObject(r, target, name)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// byTarget.LoadOrStore is the insert-if-absent claim on the target. A
	// claim whose insert fails is withdrawn before the lock is released.
	if v, loaded := r.byTarget.LoadOrStore(id, o); loaded {
		return v.(*Object), true, nil
	}
	if err := r.insertLocked(o); err != nil {
		r.byTarget.CompareAndDelete(id, o)
		return nil, false, err
	}
	r.logger.Debug("Registered managed object.",
		"name", o.name,
		"type", o.desc.Type,
		"attributes", len(o.attrs),
		"operations", len(o.ops),
		"skipped", len(o.skipped))
	return o, false, nil
}

func (r *Registry) insertLocked(o *Object) error {
	nameKey := namehash.Of(o.name)
	if v, ok := r.byName.Load(nameKey); ok {
		return fmt.Errorf("%w: %q is registered to %s", ErrNameInUse, o.name, v.(*Object).desc.Type)
	}
	b := o.batch()
	if r.collisionCheck {
		if taken := r.index.Conflicts(b); len(taken) > 0 {
			return fmt.Errorf("%w: object %q: %d of its keys are already indexed (first %s)", ErrNameCollision, o.name, len(taken), taken[0])
		}
	}
	r.index.Insert(b)
	o.setState(Registered)
	o.live.Store(true)
	r.byName.Store(nameKey, o)
	return nil
}

// Remove unregisters the object called name; "" means the root. Objects
// popped from its attributes are removed with it.
func (r *Registry) Remove(name string) (*Object, bool) {
	if name == "" {
		name = r.ownerID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byName.Load(namehash.Of(name))
	if !ok {
		return nil, false
	}
	o := v.(*Object)
	r.removeLocked(o)
	return o, true
}

// RemoveTarget unregisters the object wrapping target.
func (r *Registry) RemoveTarget(target any) (*Object, bool) {
	id, err := identityOf(target)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byTarget.Load(id)
	if !ok {
		return nil, false
	}
	o := v.(*Object)
	r.removeLocked(o)
	return o, true
}

func (r *Registry) removeLocked(o *Object) {
	if o.target == nil {
		return
	}
	for _, s := range o.attrs {
		if s.state == Popped && s.popped != nil {
			r.removeLocked(s.popped)
		}
	}
	if parent := o.poppedFrom; parent != nil && parent.popped == o {
		parent.state = Registered
		parent.popped = nil
	}
	o.poppedFrom = nil

	o.clear(r.index)
	r.byName.CompareAndDelete(namehash.Of(o.name), o)
	r.byTarget.CompareAndDelete(o.id, o)
	r.logger.Debug("Removed managed object.", "name", o.name)
}

// Clear removes every object. The registry stays usable.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName.Range(func(_, v any) bool {
		r.removeLocked(v.(*Object))
		return true
	})
	r.index.Reset()
	r.logger.Debug("Registry cleared.")
}

// Getter returns the getter of attribute name bound to the object that
// currently serves it.
func (r *Registry) Getter(name string) (invoker.Invoker, error) {
	a, t, ok := r.index.Attribute(namehash.Of(name))
	if !ok {
		return invoker.Invoker{}, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
	}
	if !a.Readable() {
		return invoker.Invoker{}, fmt.Errorf("%w: %s", ErrAttributeNotReadable, name)
	}
	return a.Getter.Bind(t.Value), nil
}

// Setter returns the setter of attribute name.
func (r *Registry) Setter(name string) (invoker.Invoker, error) {
	a, t, ok := r.index.Attribute(namehash.Of(name))
	if !ok {
		return invoker.Invoker{}, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
	}
	if !a.Writable() {
		return invoker.Invoker{}, fmt.Errorf("%w: %s", ErrAttributeNotWritable, name)
	}
	return a.Setter.Bind(t.Value), nil
}

// Operation returns the operation name with the rendered parameter list
// signature, e.g. "(int,string)". Whitespace in signature is ignored and an
// empty signature means "()".
func (r *Registry) Operation(name, signature string) (invoker.Invoker, error) {
	signature = NormalizeSignature(signature)
	o, t, ok := r.index.Operation(namehash.Operation(name, signature))
	if !ok {
		return invoker.Invoker{}, fmt.Errorf("%w: %s%s", ErrOperationNotFound, name, signature)
	}
	return o.Invoker.Bind(t.Value), nil
}

// NormalizeSignature strips whitespace and fills in "()" for empty input.
func NormalizeSignature(signature string) string {
	signature = strings.Join(strings.Fields(signature), "")
	if signature == "" {
		return "()"
	}
	return signature
}

// Get reads attribute name.
func (r *Registry) Get(name string) (any, error) {
	g, err := r.Getter(name)
	if err != nil {
		return nil, err
	}
	return g.Invoke()
}

// Set writes attribute name.
func (r *Registry) Set(name string, value any) error {
	s, err := r.Setter(name)
	if err != nil {
		return err
	}
	_, err = s.Invoke(value)
	return err
}

// Invoke calls operation name with args.
func (r *Registry) Invoke(name, signature string, args ...any) (any, error) {
	op, err := r.Operation(name, signature)
	if err != nil {
		return nil, err
	}
	return op.Invoke(args...)
}

// MergeDescriptors returns one descriptor spanning the root and every
// sub-object, root first and sub-objects ordered by name.
func (r *Registry) MergeDescriptors() *descriptor.Descriptor {
	objects := r.Objects()
	ds := make([]*descriptor.Descriptor, 0, len(objects))
	for _, o := range objects {
		ds = append(ds, o.desc)
	}
	return descriptor.Merge(r.ownerID, ds...)
}

// Lookup finds an object by name; "" means the root.
func (r *Registry) Lookup(name string) (*Object, bool) {
	if name == "" {
		name = r.ownerID
	}
	v, ok := r.byName.Load(namehash.Of(name))
	if !ok {
		return nil, false
	}
	return v.(*Object), true
}

// Objects lists registered objects, root first, then by name.
func (r *Registry) Objects() []*Object {
	var root *Object
	var subs []*Object
	r.byName.Range(func(_, v any) bool {
		o := v.(*Object)
		if o.root {
			root = o
		} else {
			subs = append(subs, o)
		}
		return true
	})
	sort.Slice(subs, func(i, j int) bool { return subs[i].name < subs[j].name })
	if root == nil {
		return subs
	}
	return append([]*Object{root}, subs...)
}

// Len is the number of registered objects.
func (r *Registry) Len() int {
	n := 0
	r.byName.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// AttributeNames lists every indexed attribute name in sorted order.
func (r *Registry) AttributeNames() []string {
	var names []string
	r.index.RangeAttributes(func(_ namehash.Key, a *index.Attribute) bool {
		names = append(names, a.Name)
		return true
	})
	sort.Strings(names)
	return names
}

// OperationKeys lists every indexed operation as "name(signature)" in sorted
// order.
func (r *Registry) OperationKeys() []string {
	var keys []string
	r.index.RangeOperations(func(_ namehash.Key, o *index.Operation) bool {
		keys = append(keys, o.Name+o.Signature)
		return true
	})
	sort.Strings(keys)
	return keys
}

// SlotState reports the state of the slot behind attribute name.
func (r *Registry) SlotState(name string) (SlotState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, _ := r.slotLocked(name)
	if s == nil {
		return Unregistered, false
	}
	return s.state, true
}

// slotLocked resolves an attribute name to the slot and object serving it.
func (r *Registry) slotLocked(name string) (*Slot, *Object) {
	k := namehash.Of(name)
	a, t, ok := r.index.Attribute(k)
	if !ok {
		return nil, nil
	}
	v, ok := r.byName.Load(namehash.Of(t.Owner))
	if !ok {
		return nil, nil
	}
	o := v.(*Object)
	s, ok := o.attrs[k]
	if !ok || s.attr != a {
		return nil, nil
	}
	return s, o
}

// Verify checks that every global entry is held by exactly the live object
// it points to and that every object's local entries are all indexed. With
// collision checks off, overwritten keys are reported too.
func (r *Registry) Verify() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	owner := func(k namehash.Key, target func(namehash.Key) (*index.Target, bool)) (*Object, error) {
		t, ok := target(k)
		if !ok {
			return nil, fmt.Errorf("key %s has no target", k)
		}
		v, ok := r.byName.Load(namehash.Of(t.Owner))
		if !ok {
			return nil, fmt.Errorf("key %s points to unregistered object %q", k, t.Owner)
		}
		o := v.(*Object)
		if o.binding != t {
			return nil, fmt.Errorf("key %s points to a stale target of %q", k, t.Owner)
		}
		return o, nil
	}

	r.index.RangeAttributes(func(k namehash.Key, a *index.Attribute) bool {
		o, err := owner(k, r.index.AttributeTarget)
		if err != nil {
			errs = append(errs, fmt.Errorf("attribute %s: %w", a.Name, err))
		} else if s, ok := o.attrs[k]; !ok || s.attr != a {
			errs = append(errs, fmt.Errorf("attribute %s: not held by %q", a.Name, o.name))
		}
		return true
	})
	r.index.RangeOperations(func(k namehash.Key, op *index.Operation) bool {
		o, err := owner(k, r.index.OperationTarget)
		if err != nil {
			errs = append(errs, fmt.Errorf("operation %s%s: %w", op.Name, op.Signature, err))
		} else if held, ok := o.ops[k]; !ok || held != op {
			errs = append(errs, fmt.Errorf("operation %s%s: not held by %q", op.Name, op.Signature, o.name))
		}
		return true
	})

	r.index.RangeAttributeTargets(func(k namehash.Key, t *index.Target) bool {
		if _, _, ok := r.index.Attribute(k); !ok {
			errs = append(errs, fmt.Errorf("attribute key %s: dangling target of %q", k, t.Owner))
		}
		return true
	})
	r.index.RangeOperationTargets(func(k namehash.Key, t *index.Target) bool {
		if _, _, ok := r.index.Operation(k); !ok {
			errs = append(errs, fmt.Errorf("operation key %s: dangling target of %q", k, t.Owner))
		}
		return true
	})

	r.byName.Range(func(_, v any) bool {
		o := v.(*Object)
		if !r.index.Owns(o.batch()) {
			errs = append(errs, fmt.Errorf("object %q: local entries missing from the index", o.name))
		}
		if t, ok := r.byTarget.Load(o.id); !ok || t != o {
			errs = append(errs, fmt.Errorf("object %q: not indexed by target", o.name))
		}
		return true
	})
	r.byTarget.Range(func(_, v any) bool {
		o := v.(*Object)
		if n, ok := r.byName.Load(namehash.Of(o.name)); !ok || n != o {
			errs = append(errs, fmt.Errorf("object %q: not indexed by name", o.name))
		}
		return true
	})

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInconsistent, errors.Join(errs...))
	}
	return nil
}
