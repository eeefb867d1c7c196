package invoker

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ctyValueType = reflect.TypeOf(cty.Value{})

// Coerce converts v to a value of type to.
//
// Values already assignable to the target are passed through. Anything else,
// including cty.Value arguments evaluated from scripts, goes through go-cty:
// the value is lifted to its implied cty type, converted to the cty type
// implied by the target, and decoded back. That path rejects lossy numeric
// conversions (1.5 into an int, 300 into an int8) instead of truncating.
func Coerce(v any, to reflect.Type) (reflect.Value, error) {
	if v == nil {
		if nillable(to) {
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil cannot be used as %s", ErrArgumentType, to)
	}

	if cv, ok := v.(cty.Value); ok && to != ctyValueType {
		return fromCty(cv, to)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(to) {
		return rv, nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s: %v", ErrArgumentType, v, to, err)
	}
	cv, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s: %v", ErrArgumentType, v, to, err)
	}
	return fromCty(cv, to)
}

// coerceTo is the typed entry point used by specialized trampolines.
func coerceTo[A any](v any) (A, error) {
	if a, ok := v.(A); ok {
		if _, isCty := v.(cty.Value); !isCty || typeOf[A]() == ctyValueType {
			return a, nil
		}
	}
	rv, err := Coerce(v, typeOf[A]())
	if err != nil {
		var zero A
		return zero, err
	}
	a, _ := rv.Interface().(A)
	return a, nil
}

func fromCty(cv cty.Value, to reflect.Type) (reflect.Value, error) {
	if !cv.IsWhollyKnown() {
		return reflect.Value{}, fmt.Errorf("%w: value is not known", ErrArgumentType)
	}

	if to.Kind() == reflect.Interface && to.NumMethod() == 0 {
		native, err := ToNative(cv)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrArgumentType, err)
		}
		if native == nil {
			return reflect.Zero(to), nil
		}
		return reflect.ValueOf(native), nil
	}

	if cv.IsNull() {
		if nillable(to) {
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: null cannot be used as %s", ErrArgumentType, to)
	}
	// A zero interface carries no type for go-cty to derive a conversion from.
	if to.Kind() == reflect.Interface {
		return reflect.Value{}, fmt.Errorf("%w: %s does not implement %s", ErrArgumentType, cv.Type().FriendlyName(), to)
	}

	want, err := gocty.ImpliedType(reflect.Zero(to).Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: no conversion to %s: %v", ErrArgumentType, to, err)
	}
	converted, err := convert.Convert(cv, want)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s to %s: %v", ErrArgumentType, cv.Type().FriendlyName(), to, err)
	}

	out := reflect.New(to)
	if err := gocty.FromCtyValue(converted, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: %v", ErrArgumentType, to, err)
	}
	return out.Elem(), nil
}

// ToNative converts a cty.Value into plain Go values: string, int64 for
// whole numbers that fit, float64 otherwise, bool, []any and map[string]any.
func ToNative(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			bf := val.AsBigFloat()
			if bf.IsInt() {
				if i, acc := bf.Int64(); acc == big.Exact {
					return i, nil
				}
			}
			f, _ := bf.Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			native, err := ToNative(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = native
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			native, err := ToNative(v)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
