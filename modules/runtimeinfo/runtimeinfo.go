// Package runtimeinfo is a built-in component exposing Go runtime statistics.
package runtimeinfo

import (
	"context"
	"runtime"
	"time"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/invoker"
)

// Info reads the runtime on every call; nothing is cached.
type Info struct {
	started time.Time
}

func NewInfo() *Info { return &Info{started: time.Now()} }

func (i *Info) Goroutines() int { return runtime.NumGoroutine() }

func (i *Info) HeapAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

func (i *Info) NumGC() uint32 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.NumGC
}

func (i *Info) GoVersion() string { return runtime.Version() }

func (i *Info) NumCPU() int { return runtime.NumCPU() }

// Age is how long ago the component was created.
func (i *Info) Age() string { return time.Since(i.started).Round(time.Millisecond).String() }

// GC forces a collection and returns the new collection count.
func (i *Info) GC() uint32 {
	runtime.GC()
	return i.NumGC()
}

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Kind() string { return "runtimeinfo" }

func (m *Module) Register(c *descriptor.Catalog) error {
	return descriptor.Register(c, descriptor.TypeDef[*Info]{
		Name: "runtimeinfo",
		Attributes: []descriptor.AttributeSpec{
			{Name: "goroutines", Getter: invoker.Getter("Goroutines", (*Info).Goroutines)},
			{Name: "heap_alloc", Description: "Bytes of allocated heap objects.", Getter: invoker.Getter("HeapAlloc", (*Info).HeapAlloc)},
			{Name: "num_gc", Getter: invoker.Getter("NumGC", (*Info).NumGC)},
			{Name: "go_version", Getter: invoker.Getter("GoVersion", (*Info).GoVersion)},
			{Name: "num_cpu", Getter: invoker.Getter("NumCPU", (*Info).NumCPU)},
			{Name: "age", Getter: invoker.Getter("Age", (*Info).Age)},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "gc", Description: "Run a garbage collection.", Method: invoker.Func0("GC", (*Info).GC)},
		},
	})
}

// New ignores decode: the component takes no arguments, but the body is
// still decoded so unknown attributes are rejected.
func (m *Module) New(ctx context.Context, decode func(args any) error) (any, error) {
	if err := decode(&struct{}{}); err != nil {
		return nil, err
	}
	return NewInfo(), nil
}
