// Package namehash reduces management names to the 64-bit keys used by every
// index in the registry.
//
// Keys are xxhash64 digests of the name. Two distinct names that hash to the
// same key are indistinguishable at this level; the registry decides whether
// such a collision is an error (see registry.Options.CollisionCheck).
package namehash

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key is the stable hash of an attribute name, an operation name plus its
// rendered signature, or a managed object name.
type Key uint64

// Of returns the key for a name.
func Of(name string) Key {
	return Key(xxhash.Sum64String(name))
}

// Operation returns the key for an operation, which is the hash of its name
// immediately followed by its rendered signature, e.g. "put(string,string)".
func Operation(name, signature string) Key {
	d := xxhash.New()
	_, _ = d.WriteString(name)
	_, _ = d.WriteString(signature)
	return Key(d.Sum64())
}

// Signature renders a parameter list in the canonical form used for
// operation keys: "()" for no parameters, "(int,string)" otherwise.
func Signature(params ...reflect.Type) string {
	if len(params) == 0 {
		return "()"
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(TypeName(p))
	}
	b.WriteByte(')')
	return b.String()
}

// TypeName is the rendering of a single type inside a signature. A nil type
// renders as "void".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// String renders the key as fixed-width hex, which is how keys appear in logs.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}
