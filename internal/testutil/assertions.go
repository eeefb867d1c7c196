package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertOutputLines checks that a line starting with each expected string
// was printed, in order, allowing other lines in between.
func AssertOutputLines(t *testing.T, result *HarnessResult, expected ...string) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	lines := result.Lines()
	next := 0
	for _, line := range lines {
		if next < len(expected) && strings.HasPrefix(line, expected[next]) {
			next++
		}
	}
	require.Equal(t, len(expected), next,
		"no line starting with %q was printed in order; output:\n%s", expected[min(next, len(expected)-1)], result.Output)
}
