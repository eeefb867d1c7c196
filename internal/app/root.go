package app

import (
	"sync"
	"time"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/invoker"
)

// rootObject is registered as the registry root. It describes the process
// itself and lists the configured components.
type rootObject struct {
	owner   string
	started time.Time

	mu         sync.RWMutex
	components []string
}

func (r *rootObject) Owner() string { return r.owner }

func (r *rootObject) UptimeSeconds() float64 { return time.Since(r.started).Seconds() }

func (r *rootObject) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.components...)
}

func (r *rootObject) Ping() string { return "pong" }

func (r *rootObject) addComponent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components = append(r.components, name)
}

func registerRoot(c *descriptor.Catalog) error {
	return descriptor.Register(c, descriptor.TypeDef[*rootObject]{
		Name: "mgmtgrid",
		Attributes: []descriptor.AttributeSpec{
			{Name: "owner", Getter: invoker.Getter("Owner", (*rootObject).Owner)},
			{Name: "uptime_seconds", Getter: invoker.Getter("UptimeSeconds", (*rootObject).UptimeSeconds)},
			{Name: "components", Description: "Names of the configured components.", Getter: invoker.Getter("Components", (*rootObject).Components)},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "ping", Method: invoker.Func0("Ping", (*rootObject).Ping)},
		},
	})
}
