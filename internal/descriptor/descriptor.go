// Package descriptor models the management surface of a type: which
// attributes it exposes for reading and writing, and which operations can be
// invoked on it.
//
// A Descriptor is produced by a Source for a target and consumed read-only by
// the registry. Each spec carries invoker.MethodRef values, so the registry
// can compile invokers without looking at the target's type again.
package descriptor

import (
	"errors"
	"reflect"

	"github.com/vk/mgmtgrid/internal/invoker"
	"github.com/vk/mgmtgrid/internal/namehash"
)

var (
	// ErrNoDescriptor is returned by a Source that cannot describe a target.
	ErrNoDescriptor = errors.New("no descriptor for type")
	// ErrInvalidTypeDef is returned when a TypeDef fails validation.
	ErrInvalidTypeDef = errors.New("invalid type definition")
)

// Source produces the Descriptor of a target. Implementations must be
// deterministic per dynamic type.
type Source interface {
	Describe(target any) (*Descriptor, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(target any) (*Descriptor, error)

func (f SourceFunc) Describe(target any) (*Descriptor, error) { return f(target) }

// AttributeSpec describes one attribute. An attribute is readable when it has
// a Getter and writable when it has a Setter. A poppable attribute's value is
// itself a manageable object that can be registered on demand.
type AttributeSpec struct {
	Name        string
	Description string
	Poppable    bool
	Getter      invoker.MethodRef
	Setter      invoker.MethodRef
}

func (a AttributeSpec) Readable() bool { return !a.Getter.IsZero() }
func (a AttributeSpec) Writable() bool { return !a.Setter.IsZero() }

// ValueType is the Go type of the attribute value, or nil if unknown.
func (a AttributeSpec) ValueType() reflect.Type {
	if a.Readable() && a.Getter.Result != nil {
		return a.Getter.Result
	}
	if a.Writable() && len(a.Setter.Params) == 1 {
		return a.Setter.Params[0]
	}
	return nil
}

// OperationSpec describes one invokable operation. Operations are identified
// by name plus rendered signature, so overloads may share a name.
type OperationSpec struct {
	Name        string
	Description string
	Method      invoker.MethodRef
}

func (o OperationSpec) Params() []reflect.Type { return o.Method.Params }

// Signature renders the parameter list, e.g. "(string,int)".
func (o OperationSpec) Signature() string {
	return namehash.Signature(o.Method.Params...)
}

// Key is the index key of the operation.
func (o OperationSpec) Key() namehash.Key {
	return namehash.Operation(o.Name, o.Signature())
}

// Descriptor is the ordered management surface of one type.
type Descriptor struct {
	Type       string
	Attributes []AttributeSpec
	Operations []OperationSpec
}

// Attribute finds an attribute by name.
func (d *Descriptor) Attribute(name string) (AttributeSpec, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

// Operation finds an operation by name and rendered signature.
func (d *Descriptor) Operation(name, signature string) (OperationSpec, bool) {
	for _, o := range d.Operations {
		if o.Name == name && o.Signature() == signature {
			return o, true
		}
	}
	return OperationSpec{}, false
}

// Clone returns a copy whose slices can be modified independently.
func (d *Descriptor) Clone() *Descriptor {
	return &Descriptor{
		Type:       d.Type,
		Attributes: append([]AttributeSpec(nil), d.Attributes...),
		Operations: append([]OperationSpec(nil), d.Operations...),
	}
}

// Prefixed returns a copy with every attribute and operation name prefixed.
func (d *Descriptor) Prefixed(prefix string) *Descriptor {
	out := d.Clone()
	for i := range out.Attributes {
		out.Attributes[i].Name = prefix + out.Attributes[i].Name
	}
	for i := range out.Operations {
		out.Operations[i].Name = prefix + out.Operations[i].Name
	}
	return out
}

// Merge concatenates descriptors in order into a new composite descriptor.
func Merge(typeName string, ds ...*Descriptor) *Descriptor {
	out := &Descriptor{Type: typeName}
	for _, d := range ds {
		if d == nil {
			continue
		}
		out.Attributes = append(out.Attributes, d.Attributes...)
		out.Operations = append(out.Operations, d.Operations...)
	}
	return out
}
