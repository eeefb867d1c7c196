package invoker

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/vk/mgmtgrid/internal/namehash"
)

// Trampoline calls one method on target. The Invoker has already checked
// that len(args) matches the parameter list.
type Trampoline func(target any, args []any) (any, error)

// Variant tells how a Template dispatches.
type Variant int

const (
	// Specialized templates call a typed Go function directly.
	Specialized Variant = iota
	// Generic templates go through reflect.Value.Call.
	Generic
)

func (v Variant) String() string {
	switch v {
	case Specialized:
		return "specialized"
	case Generic:
		return "generic"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Unit is the type of Void.
type Unit struct{}

func (Unit) String() string { return "void" }

// Void is returned by invokers of methods that produce no value.
var Void = Unit{}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// MethodRef is a reference to one method of an owner type, carrying
// everything the Compiler needs to build a trampoline for it.
type MethodRef struct {
	Owner  reflect.Type
	Name   string
	Params []reflect.Type
	// Result is nil for methods that return nothing (or only an error).
	Result reflect.Type

	// impl is the code pointer of the function behind the reference, zero
	// when there is none.
	impl    uintptr
	variant Variant
	build   func() (Trampoline, error)
}

func codePointer(fv reflect.Value) uintptr {
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return 0
	}
	return fv.Pointer()
}

// IsZero reports whether the reference is empty.
func (m MethodRef) IsZero() bool {
	return m.build == nil && m.Owner == nil && m.Name == ""
}

// Variant reports which kind of template the reference compiles to.
func (m MethodRef) Variant() Variant {
	return m.variant
}

// Signature is the stable string the Compiler keys templates by, e.g.
// "(*cache.Cache).Put(string,string) void".
func (m MethodRef) Signature() string {
	owner := "?"
	if m.Owner != nil {
		owner = m.Owner.String()
	}
	return fmt.Sprintf("(%s).%s%s %s", owner, m.Name, namehash.Signature(m.Params...), namehash.TypeName(m.Result))
}

// Key is what the Compiler caches templates by: the namehash of Signature,
// folded with the code pointer of the implementing function. Two functions
// given the same name and shape therefore never share a template.
func (m MethodRef) Key() namehash.Key {
	if m.impl == 0 {
		return namehash.Of(m.Signature())
	}
	return namehash.Of(m.Signature() + "@" + strconv.FormatUint(uint64(m.impl), 16))
}

func (m MethodRef) compile() (Trampoline, error) {
	if m.build == nil {
		return nil, uncompilable(m.Signature(), "empty method reference")
	}
	call, err := m.build()
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, uncompilable(m.Signature(), "no trampoline produced")
	}
	return call, nil
}

// FromMethod builds a generic reference from a method of owner, as returned
// by owner.Method(i) or owner.MethodByName. Methods of interface types have
// no implementation and fail to compile.
func FromMethod(owner reflect.Type, m reflect.Method) MethodRef {
	if owner != nil && owner.Kind() == reflect.Interface {
		ref := MethodRef{Owner: owner, Name: m.Name, variant: Generic}
		if m.Type != nil {
			ref.Params, ref.Result, _ = shape(m.Type, 0)
		}
		ref.build = func() (Trampoline, error) {
			return nil, uncompilable(ref.Signature(), "abstract method has no implementation")
		}
		return ref
	}
	return FromFunc(owner, m.Name, m.Func)
}

// FromFunc builds a generic reference from fn, whose first parameter is the
// receiver. fn may be a func value or a reflect.Value holding one.
func FromFunc(owner reflect.Type, name string, fn any) MethodRef {
	ref := MethodRef{Owner: owner, Name: name, variant: Generic}

	fv, ok := fn.(reflect.Value)
	if !ok {
		fv = reflect.ValueOf(fn)
	}
	ref.impl = codePointer(fv)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		ref.build = func() (Trampoline, error) {
			return nil, uncompilable(ref.Signature(), "not a function")
		}
		return ref
	}

	ft := fv.Type()
	params, result, shapeErr := shape(ft, 1)
	ref.Params, ref.Result = params, result
	ref.build = func() (Trampoline, error) {
		if shapeErr != nil {
			return nil, uncompilable(ref.Signature(), shapeErr.Error())
		}
		if ft.NumIn() == 0 {
			return nil, uncompilable(ref.Signature(), "function has no receiver parameter")
		}
		if owner != nil && !owner.AssignableTo(ft.In(0)) {
			return nil, uncompilable(ref.Signature(), fmt.Sprintf("receiver %s does not accept %s", ft.In(0), owner))
		}
		return reflectTrampoline(fv, params, result != nil, returnsError(ft)), nil
	}
	return ref
}

// shape extracts the management-visible parameters (skipping the first skip
// inputs) and the result type of a function type.
func shape(ft reflect.Type, skip int) ([]reflect.Type, reflect.Type, error) {
	var params []reflect.Type
	for i := skip; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	if ft.IsVariadic() {
		return params, nil, fmt.Errorf("variadic functions are not supported")
	}

	switch ft.NumOut() {
	case 0:
		return params, nil, nil
	case 1:
		if ft.Out(0) == errorType {
			return params, nil, nil
		}
		return params, ft.Out(0), nil
	case 2:
		if ft.Out(1) != errorType {
			return params, ft.Out(0), fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
		return params, ft.Out(0), nil
	default:
		return params, nil, fmt.Errorf("too many results: %d", ft.NumOut())
	}
}

func returnsError(ft reflect.Type) bool {
	return ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
}

// reflectTrampoline is the generic dispatch path.
func reflectTrampoline(fn reflect.Value, params []reflect.Type, hasResult, hasErr bool) Trampoline {
	recvType := fn.Type().In(0)
	return func(target any, args []any) (any, error) {
		recv := reflect.ValueOf(target)
		if !recv.IsValid() || !recv.Type().AssignableTo(recvType) {
			return nil, fmt.Errorf("%w: %T is not %s", ErrTargetType, target, recvType)
		}

		in := make([]reflect.Value, len(args)+1)
		in[0] = recv
		for i, arg := range args {
			v, err := Coerce(arg, params[i])
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			in[i+1] = v
		}

		return processResults(fn.Call(in), hasResult, hasErr)
	}
}

// processResults maps Go results onto the (value, error) pair of a Trampoline.
func processResults(out []reflect.Value, hasResult, hasErr bool) (any, error) {
	if hasErr {
		last := out[len(out)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}
	if !hasResult {
		return Void, nil
	}
	return out[0].Interface(), nil
}
