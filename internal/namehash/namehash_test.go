package namehash

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_Stable(t *testing.T) {
	require.Equal(t, Of("temp"), Of("temp"))
	assert.NotEqual(t, Of("temp"), Of("Temp"))
}

func TestOf_PrefixedNamesDiffer(t *testing.T) {
	assert.NotEqual(t, Of("Ax"), Of("Bx"))
	assert.NotEqual(t, Of("x"), Of("Ax"))
}

func TestOperation_EqualsConcatenation(t *testing.T) {
	assert.Equal(t, Of("reset()"), Operation("reset", "()"))
	assert.Equal(t, Of("put(string,string)"), Operation("put", "(string,string)"))
	assert.NotEqual(t, Operation("put", "(string)"), Operation("put", "(string,string)"))
}

func TestSignature(t *testing.T) {
	testCases := []struct {
		name     string
		params   []reflect.Type
		expected string
	}{
		{name: "no params", expected: "()"},
		{name: "single", params: []reflect.Type{reflect.TypeOf(0)}, expected: "(int)"},
		{
			name:     "several",
			params:   []reflect.Type{reflect.TypeOf(""), reflect.TypeOf([]int{}), reflect.TypeOf(1.5)},
			expected: "(string,[]int,float64)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Signature(tc.params...))
		})
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "00000000000000ff", Key(255).String())
	assert.Equal(t, "void", TypeName(nil))
}
