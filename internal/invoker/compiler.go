package invoker

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Compiler builds Templates from MethodRefs and caches them by MethodRef.Key,
// the namehash of the method signature and implementation. One Compiler is
// normally shared by every registry of a process.
//
// Lookups of already compiled signatures are a single sync.Map load.
// Concurrent first compilations of the same signature are collapsed by a
// singleflight group, so each signature is built exactly once. Two distinct
// signatures with equal hashes share the first template built.
type Compiler struct {
	templates sync.Map // namehash.Key -> *Template
	failures  sync.Map // namehash.Key -> error
	group     singleflight.Group

	compilations atomic.Int64
	logger       *slog.Logger
}

// NewCompiler creates an empty compiler. A nil logger means slog.Default().
func NewCompiler(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{logger: logger.With("component", "invoker-compiler")}
}

// Compile returns the template for ref, building it on first use. A
// reference that failed once keeps failing with the same error; it is not
// rebuilt.
func (c *Compiler) Compile(ref MethodRef) (*Template, error) {
	signature := ref.Signature()
	key := ref.Key()

	if t, ok := c.templates.Load(key); ok {
		return t.(*Template), nil
	}
	if err, ok := c.failures.Load(key); ok {
		return nil, err.(error)
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if t, ok := c.templates.Load(key); ok {
			return t, nil
		}

		call, err := ref.compile()
		if err != nil {
			c.failures.Store(key, err)
			c.logger.Warn("Method could not be compiled.", "signature", signature, "error", err)
			return nil, err
		}

		t := &Template{
			key:       key,
			signature: signature,
			name:      ref.Name,
			owner:     ref.Owner,
			params:    ref.Params,
			result:    ref.Result,
			variant:   ref.variant,
			call:      call,
		}
		c.templates.Store(key, t)
		c.compilations.Add(1)
		c.logger.Debug("Compiled invoker template.", "signature", signature, "variant", ref.variant.String(), "key", key.String())
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// Lookup returns the cached template for ref without compiling.
func (c *Compiler) Lookup(ref MethodRef) (*Template, bool) {
	t, ok := c.templates.Load(ref.Key())
	if !ok {
		return nil, false
	}
	return t.(*Template), true
}

// Len is the number of cached templates.
func (c *Compiler) Len() int {
	n := 0
	c.templates.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Compilations counts successful builds since creation. With the compile-once
// guarantee it always equals Len.
func (c *Compiler) Compilations() int64 {
	return c.compilations.Load()
}
