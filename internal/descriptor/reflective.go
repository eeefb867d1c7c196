package descriptor

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/vk/mgmtgrid/internal/invoker"
)

// Poppables is implemented by targets described by Reflective that want some
// of their attributes to be poppable.
type Poppables interface {
	PoppableAttributes() []string
}

var boolType = reflect.TypeOf(false)

// Reflective derives a Descriptor from the exported method set of a target:
//
//   - GetX() V and IsX() bool become the getter of attribute "x"
//   - SetX(V) and SetX(V) error become the setter of attribute "x"
//   - every other exported method becomes operation "lowerFirst(name)"
//
// Invokers built from a reflective Descriptor use the generic variant.
type Reflective struct{}

// Describe implements Source.
func (Reflective) Describe(target any) (*Descriptor, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", ErrNoDescriptor)
	}
	typ := reflect.TypeOf(target)
	d := &Descriptor{Type: typ.String()}

	attrs := make(map[string]*AttributeSpec)
	var order []string
	attr := func(name string) *AttributeSpec {
		if a, ok := attrs[name]; ok {
			return a
		}
		a := &AttributeSpec{Name: name}
		attrs[name] = a
		order = append(order, name)
		return a
	}

	// Method(i) iterates exported methods in lexicographic order, which keeps
	// the result deterministic per type.
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if m.Name == "PoppableAttributes" {
			continue
		}
		ref := invoker.FromMethod(typ, m)

		switch {
		case isGetter(m, "Get"):
			attr(lowerFirst(strings.TrimPrefix(m.Name, "Get"))).Getter = ref
		case isGetter(m, "Is") && ref.Result == boolType:
			attr(lowerFirst(strings.TrimPrefix(m.Name, "Is"))).Getter = ref
		case isSetter(m):
			attr(lowerFirst(strings.TrimPrefix(m.Name, "Set"))).Setter = ref
		default:
			d.Operations = append(d.Operations, OperationSpec{Name: lowerFirst(m.Name), Method: ref})
		}
	}

	if p, ok := target.(Poppables); ok {
		for _, name := range p.PoppableAttributes() {
			a, ok := attrs[name]
			if !ok || !a.Readable() {
				return nil, fmt.Errorf("%w: %s: poppable attribute %q has no getter", ErrNoDescriptor, typ, name)
			}
			a.Poppable = true
		}
	}

	for _, name := range order {
		d.Attributes = append(d.Attributes, *attrs[name])
	}
	return d, nil
}

// isGetter matches prefix + exported suffix, no parameters besides the
// receiver and exactly one non-error result.
func isGetter(m reflect.Method, prefix string) bool {
	if !hasAccessorName(m.Name, prefix) {
		return false
	}
	ft := m.Type
	return ft.NumIn() == 1 && ft.NumOut() == 1 && ft.Out(0) != reflect.TypeOf((*error)(nil)).Elem()
}

func isSetter(m reflect.Method) bool {
	if !hasAccessorName(m.Name, "Set") {
		return false
	}
	ft := m.Type
	if ft.NumIn() != 2 || ft.IsVariadic() {
		return false
	}
	switch ft.NumOut() {
	case 0:
		return true
	case 1:
		return ft.Out(0) == reflect.TypeOf((*error)(nil)).Elem()
	default:
		return false
	}
}

func hasAccessorName(name, prefix string) bool {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" {
		return false
	}
	return unicode.IsUpper([]rune(rest)[0])
}

// lowerFirst lowercases the leading capital run of an exported Go name,
// keeping the last capital of an initialism that starts the next word:
// "Temp" → "temp", "URL" → "url", "HTTPClient" → "httpClient".
func lowerFirst(name string) string {
	r := []rune(name)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	if n > 1 && n < len(r) {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
