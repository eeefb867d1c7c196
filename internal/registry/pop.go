package registry

import (
	"errors"
	"sort"

	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/index"
	"github.com/vk/mgmtgrid/internal/namehash"
)

// Pop registers the current value of poppable attribute name as a
// sub-object called name plus the pop separator. It returns nil when the
// attribute is absent, not poppable, already popped, when the getter yields
// nil, or when the value is already registered.
func (r *Registry) Pop(name string) (*descriptor.Descriptor, error) {
	r.mu.Lock()
	slot, owner := r.slotLocked(name)
	if slot == nil || !slot.attr.Poppable || slot.state != Registered {
		r.mu.Unlock()
		return nil, nil
	}
	getter := slot.attr.Getter.Bind(owner.target)
	r.mu.Unlock()

	// The getter runs unlocked: it is application code and may call back
	// into the registry.
	value, err := getter.Invoke()
	if err != nil {
		return nil, err
	}
	if isNil(value) {
		return nil, nil
	}

	o, existing, err := r.put(value, name+r.popSeparator)
	if err != nil || existing {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.state != Registered {
		// The owner was removed or the slot popped concurrently.
		r.removeLocked(o)
		return nil, nil
	}
	slot.state = Popped
	slot.popped = o
	o.poppedFrom = slot
	r.logger.Debug("Popped attribute.", "attribute", name, "object", o.name)
	return o.desc, nil
}

// PopAll pops every poppable attribute indexed when it is called. Objects
// registered by this pass are not popped again in the same pass.
func (r *Registry) PopAll() ([]*descriptor.Descriptor, error) {
	var out []*descriptor.Descriptor
	var errs []error
	for _, name := range r.poppableNames(Registered) {
		d, err := r.Pop(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out, errors.Join(errs...)
}

// Unpop removes the sub-object registered by Pop(name). The getter is read
// again and, if its current value is the popped object, that object is
// removed; otherwise the object recorded at pop time is. It reports whether
// anything was removed.
func (r *Registry) Unpop(name string) (bool, error) {
	r.mu.Lock()
	slot, owner := r.slotLocked(name)
	if slot == nil || !slot.attr.Poppable || slot.state != Popped {
		r.mu.Unlock()
		return false, nil
	}
	getter := slot.attr.Getter.Bind(owner.target)
	r.mu.Unlock()

	value, err := getter.Invoke()
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	victim := slot.popped
	if id, err := identityOf(value); err == nil {
		if v, ok := r.byTarget.Load(id); ok && v.(*Object).poppedFrom == slot {
			victim = v.(*Object)
		}
	}
	if victim == nil || victim.target == nil {
		slot.state = Registered
		slot.popped = nil
		return false, nil
	}
	r.removeLocked(victim)
	r.logger.Debug("Unpopped attribute.", "attribute", name, "object", victim.name)
	return true, nil
}

// UnpopAll unpops every popped attribute and returns how many objects were
// removed.
func (r *Registry) UnpopAll() (int, error) {
	removed := 0
	var errs []error
	// Inner pops first, so each removal is counted once instead of being
	// swallowed by the cascade of its parent.
	names := r.poppableNames(Popped)
	for i := len(names) - 1; i >= 0; i-- {
		ok, err := r.Unpop(names[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			removed++
		}
	}
	return removed, errors.Join(errs...)
}

// poppableNames snapshots the names of poppable attributes in state, sorted,
// so an attribute comes before the attributes of the object it pops.
func (r *Registry) poppableNames(state SlotState) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	r.index.RangeAttributes(func(_ namehash.Key, a *index.Attribute) bool {
		if !a.Poppable {
			return true
		}
		if s, _ := r.slotLocked(a.Name); s != nil && s.state == state {
			names = append(names, a.Name)
		}
		return true
	})
	sort.Strings(names)
	return names
}
