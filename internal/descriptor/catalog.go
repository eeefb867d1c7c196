package descriptor

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// TypeDef declares the management surface of T using typed method references:
//
//	descriptor.Register(catalog, descriptor.TypeDef[*Cache]{
//	    Attributes: []descriptor.AttributeSpec{
//	        {Name: "size", Getter: invoker.Getter("Size", (*Cache).Size)},
//	        {Name: "stats", Getter: invoker.Getter("Stats", (*Cache).Stats), Poppable: true},
//	    },
//	    Operations: []descriptor.OperationSpec{
//	        {Name: "clear", Method: invoker.Proc0("Clear", (*Cache).Clear)},
//	    },
//	})
type TypeDef[T any] struct {
	// Name overrides the type name reported in the Descriptor.
	Name       string
	Attributes []AttributeSpec
	Operations []OperationSpec
}

// Catalog is a Source backed by TypeDefs registered up front. Targets of an
// unregistered type are handed to the fallback Source, if any.
type Catalog struct {
	mu       sync.RWMutex
	types    map[reflect.Type]*Descriptor
	fallback Source
}

// NewCatalog creates an empty catalog. fallback may be nil.
func NewCatalog(fallback Source) *Catalog {
	return &Catalog{
		types:    make(map[reflect.Type]*Descriptor),
		fallback: fallback,
	}
}

// Register validates def and stores its Descriptor for T. Registering the
// same type twice is an error.
func Register[T any](c *Catalog, def TypeDef[T]) error {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	d, err := def.build(typ)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.types[typ]; exists {
		return fmt.Errorf("%w: type %s already registered", ErrInvalidTypeDef, typ)
	}
	c.types[typ] = d
	return nil
}

// MustRegister is Register that panics on error, for package-level wiring of
// built-in types.
func MustRegister[T any](c *Catalog, def TypeDef[T]) {
	if err := Register(c, def); err != nil {
		panic(err)
	}
}

func (def TypeDef[T]) build(typ reflect.Type) (*Descriptor, error) {
	name := def.Name
	if name == "" {
		name = typ.String()
	}
	d := &Descriptor{Type: name}

	seenAttrs := make(map[string]struct{})
	for _, a := range def.Attributes {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: %s: attribute with empty name", ErrInvalidTypeDef, name)
		}
		if _, dup := seenAttrs[a.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate attribute %q", ErrInvalidTypeDef, name, a.Name)
		}
		seenAttrs[a.Name] = struct{}{}

		if !a.Readable() && !a.Writable() {
			return nil, fmt.Errorf("%w: %s: attribute %q has neither getter nor setter", ErrInvalidTypeDef, name, a.Name)
		}
		if a.Poppable && !a.Readable() {
			return nil, fmt.Errorf("%w: %s: poppable attribute %q needs a getter", ErrInvalidTypeDef, name, a.Name)
		}
		if a.Readable() && len(a.Getter.Params) != 0 {
			return nil, fmt.Errorf("%w: %s: getter of %q takes arguments", ErrInvalidTypeDef, name, a.Name)
		}
		if a.Writable() && len(a.Setter.Params) != 1 {
			return nil, fmt.Errorf("%w: %s: setter of %q must take exactly one argument", ErrInvalidTypeDef, name, a.Name)
		}
		for _, ref := range []struct {
			owner reflect.Type
			set   bool
		}{{a.Getter.Owner, a.Readable()}, {a.Setter.Owner, a.Writable()}} {
			if ref.set && ref.owner != nil && !typ.AssignableTo(ref.owner) {
				return nil, fmt.Errorf("%w: %s: attribute %q is declared on %s", ErrInvalidTypeDef, name, a.Name, ref.owner)
			}
		}
		d.Attributes = append(d.Attributes, a)
	}

	seenOps := make(map[string]struct{})
	for _, o := range def.Operations {
		if o.Name == "" {
			return nil, fmt.Errorf("%w: %s: operation with empty name", ErrInvalidTypeDef, name)
		}
		if o.Method.IsZero() {
			return nil, fmt.Errorf("%w: %s: operation %q has no method", ErrInvalidTypeDef, name, o.Name)
		}
		id := o.Name + o.Signature()
		if _, dup := seenOps[id]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate operation %s", ErrInvalidTypeDef, name, id)
		}
		seenOps[id] = struct{}{}
		if o.Method.Owner != nil && !typ.AssignableTo(o.Method.Owner) {
			return nil, fmt.Errorf("%w: %s: operation %q is declared on %s", ErrInvalidTypeDef, name, o.Name, o.Method.Owner)
		}
		d.Operations = append(d.Operations, o)
	}

	return d, nil
}

// Describe implements Source. The returned Descriptor is shared and must not
// be modified.
func (c *Catalog) Describe(target any) (*Descriptor, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", ErrNoDescriptor)
	}
	typ := reflect.TypeOf(target)

	c.mu.RLock()
	d, ok := c.types[typ]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	if c.fallback != nil {
		return c.fallback.Describe(target)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoDescriptor, typ)
}

// Types lists the registered type names in sorted order.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.types))
	for _, d := range c.types {
		names = append(names, d.Type)
	}
	sort.Strings(names)
	return names
}
