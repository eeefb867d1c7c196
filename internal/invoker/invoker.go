package invoker

import (
	"reflect"

	"github.com/vk/mgmtgrid/internal/namehash"
)

// Template is the compiled, shared artifact for one method signature. It is
// immutable; targets are attached by Bind.
type Template struct {
	key       namehash.Key
	signature string
	name      string
	owner     reflect.Type
	params    []reflect.Type
	result    reflect.Type
	variant   Variant
	call      Trampoline
}

func (t *Template) Key() namehash.Key { return t.key }
func (t *Template) Signature() string { return t.signature }
func (t *Template) Name() string { return t.name }
func (t *Template) Owner() reflect.Type { return t.owner }
func (t *Template) Params() []reflect.Type { return t.params }
func (t *Template) Result() reflect.Type { return t.result }
func (t *Template) Variant() Variant { return t.variant }

// Bind returns an Invoker calling this template on target.
func (t *Template) Bind(target any) Invoker {
	return Invoker{tmpl: t, target: target, name: t.name}
}

// Invoker is a Template paired with a target. It is a value: Bind and Named
// return modified copies and never touch the shared Template.
type Invoker struct {
	tmpl   *Template
	target any
	name   string
}

// Valid reports whether the invoker wraps a template at all.
func (i Invoker) Valid() bool { return i.tmpl != nil }

// Bound reports whether the invoker has a target.
func (i Invoker) Bound() bool { return i.tmpl != nil && i.target != nil }

func (i Invoker) Template() *Template { return i.tmpl }
func (i Invoker) Target() any { return i.target }
func (i Invoker) Name() string { return i.name }

// Bind returns a copy of the invoker calling the same template on target.
func (i Invoker) Bind(target any) Invoker {
	i.target = target
	return i
}

// Named returns a copy that reports name in errors.
func (i Invoker) Named(name string) Invoker {
	i.name = name
	return i
}

// Invoke calls the method with args. Every failure, including a panic in the
// method, is returned as an *InvocationError.
func (i Invoker) Invoke(args ...any) (result any, err error) {
	if !i.Bound() {
		return nil, &InvocationError{Name: i.name, Err: ErrUnbound}
	}
	if len(args) != len(i.tmpl.params) {
		return nil, &InvocationError{
			Name: i.name,
			Err:  arityError(len(i.tmpl.params), len(args)),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &InvocationError{Name: i.name, Err: &PanicError{Value: r}}
		}
	}()

	result, err = i.tmpl.call(i.target, args)
	if err != nil {
		return nil, &InvocationError{Name: i.name, Err: err}
	}
	return result, nil
}
