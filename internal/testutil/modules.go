package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/invoker"
)

// Counter is a managed test component with a writable value, a poppable
// history and an operation that panics.
type Counter struct {
	mu      sync.Mutex
	value   int
	history *History
}

// History records every value a Counter has held.
type History struct {
	mu     sync.Mutex
	values []int
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}

func (h *History) Last() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.values) == 0 {
		return 0
	}
	return h.values[len(h.values)-1]
}

func (h *History) add(v int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, v)
}

func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *Counter) SetValue(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.history.add(v)
}

func (c *Counter) Add(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
	c.history.add(c.value)
	return c.value
}

func (c *Counter) History() *History { return c.history }

func (c *Counter) Explode() { panic(fmt.Sprintf("counter exploded at %d", c.Value())) }

// CounterModule provides the "counter" component kind.
type CounterModule struct{}

type counterArgs struct {
	Start int `hcl:"start,optional"`
}

func (m *CounterModule) Kind() string { return "counter" }

func (m *CounterModule) Register(c *descriptor.Catalog) error {
	if err := descriptor.Register(c, descriptor.TypeDef[*Counter]{
		Name: "counter",
		Attributes: []descriptor.AttributeSpec{
			{Name: "value", Getter: invoker.Getter("Value", (*Counter).Value), Setter: invoker.Setter("SetValue", (*Counter).SetValue)},
			{Name: "history", Getter: invoker.Getter("History", (*Counter).History), Poppable: true},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "add", Method: invoker.Func1("Add", (*Counter).Add)},
			{Name: "explode", Method: invoker.Proc0("Explode", (*Counter).Explode)},
		},
	}); err != nil {
		return err
	}
	return descriptor.Register(c, descriptor.TypeDef[*History]{
		Name: "counter.history",
		Attributes: []descriptor.AttributeSpec{
			{Name: "len", Getter: invoker.Getter("Len", (*History).Len)},
			{Name: "last", Getter: invoker.Getter("Last", (*History).Last)},
		},
	})
}

func (m *CounterModule) New(ctx context.Context, decode func(args any) error) (any, error) {
	var args counterArgs
	if err := decode(&args); err != nil {
		return nil, err
	}
	return &Counter{value: args.Start, history: &History{}}, nil
}
