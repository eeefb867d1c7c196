// Package invoker turns method references into callables that a management
// client can invoke by name without knowing the target's Go type.
//
// A MethodRef describes one method: its owner type, name, parameter and
// result types, and how to build a trampoline for it. The Compiler turns a
// MethodRef into a Template exactly once per signature and caches it; a
// Template is shared by every target of the same type and is never mutated.
// Binding a Template to a target produces an Invoker, a small value that can
// be copied and rebound freely.
//
// Two variants exist:
//
//   - Specialized templates come from the generic constructors (Getter,
//     Setter, Func1, Proc0, ...). Their trampolines are monomorphized per Go
//     signature shape and call the method directly, without reflect.Call.
//   - Generic templates come from FromMethod and FromFunc and dispatch through
//     reflect.Value.Call. They exist for targets described reflectively.
//
// Arguments are coerced to the parameter types before the call (see Coerce),
// so a remote client may pass "42" for an int parameter or a cty.Value
// evaluated from a script.
package invoker
