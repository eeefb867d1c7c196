package cache

import (
	"context"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/invoker"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Arguments are the settings of a `component "cache"` block.
type Arguments struct {
	Capacity int `hcl:"capacity,optional"`
}

func (m *Module) Kind() string { return "cache" }

// Register declares the management surface of *Cache and *Stats.
func (m *Module) Register(c *descriptor.Catalog) error {
	err := descriptor.Register(c, descriptor.TypeDef[*Cache]{
		Name: "cache",
		Attributes: []descriptor.AttributeSpec{
			{Name: "size", Description: "Number of cached entries.", Getter: invoker.Getter("Size", (*Cache).Size)},
			{
				Name:        "capacity",
				Description: "Maximum number of entries.",
				Getter:      invoker.Getter("Capacity", (*Cache).Capacity),
				Setter:      invoker.SetterE("SetCapacity", (*Cache).SetCapacity),
			},
			{Name: "stats", Description: "Lookup statistics.", Getter: invoker.Getter("Stats", (*Cache).Stats), Poppable: true},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "put", Method: invoker.Proc2("Put", (*Cache).Put)},
			{Name: "get", Method: invoker.Func1E("Get", (*Cache).Get)},
			{Name: "delete", Method: invoker.Func1("Delete", (*Cache).Delete)},
			{Name: "clear", Description: "Drop every entry.", Method: invoker.Proc0("Clear", (*Cache).Clear)},
		},
	})
	if err != nil {
		return err
	}
	return descriptor.Register(c, descriptor.TypeDef[*Stats]{
		Name: "cache.stats",
		Attributes: []descriptor.AttributeSpec{
			{Name: "hits", Getter: invoker.Getter("Hits", (*Stats).Hits)},
			{Name: "misses", Getter: invoker.Getter("Misses", (*Stats).Misses)},
			{Name: "hit_ratio", Getter: invoker.Getter("HitRatio", (*Stats).HitRatio)},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "reset", Method: invoker.Proc0("Reset", (*Stats).Reset)},
		},
	})
}

// New builds a cache from its component arguments.
func (m *Module) New(ctx context.Context, decode func(args any) error) (any, error) {
	args := Arguments{Capacity: DefaultCapacity}
	if err := decode(&args); err != nil {
		return nil, err
	}
	return New(args.Capacity)
}
