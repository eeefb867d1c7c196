// Package env_vars is a built-in component that exposes the process
// environment, optionally narrowed to variables with a common prefix.
package env_vars

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/invoker"
)

// ErrNotSet is returned by Lookup for variables that are not set.
var ErrNotSet = errors.New("environment variable not set")

// Env is a view of the environment. The environment itself is read on
// every call.
type Env struct {
	mu     sync.RWMutex
	prefix string
}

func NewEnv(prefix string) *Env { return &Env{prefix: prefix} }

func (e *Env) Prefix() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prefix
}

func (e *Env) SetPrefix(prefix string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefix = prefix
}

// Vars returns the variables under the prefix, keyed by their full name.
func (e *Env) Vars() map[string]string {
	prefix := e.Prefix()
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, prefix) {
			vars[name] = value
		}
	}
	return vars
}

func (e *Env) Count() int { return len(e.Vars()) }

// Names returns the sorted variable names under the prefix.
func (e *Env) Names() []string {
	vars := e.Vars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup reads prefix+name.
func (e *Env) Lookup(name string) (string, error) {
	full := e.Prefix() + name
	v, ok := os.LookupEnv(full)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotSet, full)
	}
	return v, nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Arguments are the settings of a `component "env_vars"` block.
type Arguments struct {
	Prefix string `hcl:"prefix,optional"`
}

func (m *Module) Kind() string { return "env_vars" }

// Register declares the management surface of *Env.
func (m *Module) Register(c *descriptor.Catalog) error {
	return descriptor.Register(c, descriptor.TypeDef[*Env]{
		Name: "env_vars",
		Attributes: []descriptor.AttributeSpec{
			{Name: "count", Getter: invoker.Getter("Count", (*Env).Count)},
			{
				Name:        "prefix",
				Description: "Only variables starting with prefix are visible.",
				Getter:      invoker.Getter("Prefix", (*Env).Prefix),
				Setter:      invoker.Setter("SetPrefix", (*Env).SetPrefix),
			},
			{Name: "names", Getter: invoker.Getter("Names", (*Env).Names)},
			{Name: "vars", Getter: invoker.Getter("Vars", (*Env).Vars)},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "lookup", Description: "Read prefix+name.", Method: invoker.Func1E("Lookup", (*Env).Lookup)},
		},
	})
}

func (m *Module) New(ctx context.Context, decode func(args any) error) (any, error) {
	var args Arguments
	if err := decode(&args); err != nil {
		return nil, err
	}
	return NewEnv(args.Prefix), nil
}
