package invoker

import (
	"errors"
	"fmt"
)

var (
	// ErrUncompilableMethod is returned by Compiler.Compile when a method
	// reference cannot be turned into a trampoline.
	ErrUncompilableMethod = errors.New("uncompilable method")

	// ErrUnbound means the invoker has no target.
	ErrUnbound = errors.New("invoker is not bound to a target")
	// ErrArity means the number of arguments does not match the signature.
	ErrArity = errors.New("wrong number of arguments")
	// ErrArgumentType means an argument could not be coerced to its parameter type.
	ErrArgumentType = errors.New("argument type mismatch")
	// ErrTargetType means the bound target is not of the method's owner type.
	ErrTargetType = errors.New("target type mismatch")
)

// InvocationError wraps every failure raised while invoking a method,
// including errors returned by the method itself and recovered panics.
type InvocationError struct {
	Name string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Name, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// PanicError carries the value recovered from a panicking method.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func uncompilable(signature, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrUncompilableMethod, signature, reason)
}

func arityError(want, got int) error {
	return fmt.Errorf("%w: expected %d, got %d", ErrArity, want, got)
}
