package invoker

import (
	"fmt"
	"reflect"
)

// typeOf returns the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func receiver[T any](target any) (T, error) {
	t, ok := target.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T is not %s", ErrTargetType, target, typeOf[T]())
	}
	return t, nil
}

func arg[A any](args []any, i int) (A, error) {
	a, err := coerceTo[A](args[i])
	if err != nil {
		return a, fmt.Errorf("argument %d: %w", i+1, err)
	}
	return a, nil
}

// specialized wires the common parts of every typed constructor. fn is the
// typed function behind call; a nil fn makes the reference uncompilable.
//
// Closures created from one function literal share a code pointer, so they
// are told apart only by name.
func specialized[T any](name string, params []reflect.Type, result reflect.Type, fn any, call Trampoline) MethodRef {
	ref := MethodRef{
		Owner:   typeOf[T](),
		Name:    name,
		Params:  params,
		Result:  result,
		impl:    codePointer(reflect.ValueOf(fn)),
		variant: Specialized,
	}
	ref.build = func() (Trampoline, error) {
		if ref.impl == 0 {
			return nil, uncompilable(ref.Signature(), "nil function")
		}
		return call, nil
	}
	return ref
}

// Getter references an attribute getter func(T) V.
func Getter[T, V any](name string, fn func(T) V) MethodRef {
	return specialized[T](name, nil, typeOf[V](), fn, func(target any, _ []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		return fn(t), nil
	})
}

// GetterE references a fallible attribute getter func(T) (V, error).
func GetterE[T, V any](name string, fn func(T) (V, error)) MethodRef {
	return specialized[T](name, nil, typeOf[V](), fn, func(target any, _ []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		v, err := fn(t)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Setter references an attribute setter func(T, V).
func Setter[T, V any](name string, fn func(T, V)) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[V]()}, nil, fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		v, err := arg[V](args, 0)
		if err != nil {
			return nil, err
		}
		fn(t, v)
		return Void, nil
	})
}

// SetterE references a fallible attribute setter func(T, V) error.
func SetterE[T, V any](name string, fn func(T, V) error) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[V]()}, nil, fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		v, err := arg[V](args, 0)
		if err != nil {
			return nil, err
		}
		if err := fn(t, v); err != nil {
			return nil, err
		}
		return Void, nil
	})
}

// Func0 references an operation func(T) R.
func Func0[T, R any](name string, fn func(T) R) MethodRef {
	return specialized[T](name, nil, typeOf[R](), fn, func(target any, _ []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		return fn(t), nil
	})
}

// Func0E references an operation func(T) (R, error).
func Func0E[T, R any](name string, fn func(T) (R, error)) MethodRef {
	return specialized[T](name, nil, typeOf[R](), fn, func(target any, _ []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		r, err := fn(t)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Func1 references an operation func(T, A) R.
func Func1[T, A, R any](name string, fn func(T, A) R) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[A]()}, typeOf[R](), fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(t, a), nil
	})
}

// Func1E references an operation func(T, A) (R, error).
func Func1E[T, A, R any](name string, fn func(T, A) (R, error)) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[A]()}, typeOf[R](), fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		r, err := fn(t, a)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Func2 references an operation func(T, A, B) R.
func Func2[T, A, B, R any](name string, fn func(T, A, B) R) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[A](), typeOf[B]()}, typeOf[R](), fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(t, a, b), nil
	})
}

// Proc0 references an operation func(T) with no result.
func Proc0[T any](name string, fn func(T)) MethodRef {
	return specialized[T](name, nil, nil, fn, func(target any, _ []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		fn(t)
		return Void, nil
	})
}

// Proc1 references an operation func(T, A) with no result.
func Proc1[T, A any](name string, fn func(T, A)) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[A]()}, nil, fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		fn(t, a)
		return Void, nil
	})
}

// Proc2 references an operation func(T, A, B) with no result.
func Proc2[T, A, B any](name string, fn func(T, A, B)) MethodRef {
	return specialized[T](name, []reflect.Type{typeOf[A](), typeOf[B]()}, nil, fn, func(target any, args []any) (any, error) {
		t, err := receiver[T](target)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		fn(t, a, b)
		return Void, nil
	})
}
