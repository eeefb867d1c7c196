package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_UsageErrors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "unknown flag", args: []string{"check", "--bogus"}, contains: "unknown flag: --bogus"},
		{name: "bad log level", args: []string{"check", "--log-level", "loud"}, contains: "invalid log-level"},
		{name: "bad log format", args: []string{"check", "--log-format", "xml"}, contains: "invalid log-format"},
		{name: "run without scripts", args: []string{"run"}, contains: "at least one script"},
		{name: "describe with args", args: []string{"describe", "extra"}, contains: "unknown command"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Execute(context.Background(), tc.args, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "got %T: %v", err, err)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.contains)
		})
	}
}

func TestExecute_Commands(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`
registry { owner = "cli" }
component "cache" "sessions" {}
`), 0o644))
	script := filepath.Join(dir, "script.hcl")
	require.NoError(t, os.WriteFile(script, []byte(`get "sessions.capacity" { expect = 128 }`), 0o644))

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, Execute(context.Background(), []string{"check", "-c", cfg}, out, logs))
	assert.Contains(t, out.String(), "ok: 2 objects")

	out.Reset()
	require.NoError(t, Execute(context.Background(), []string{"run", "--config", cfg, "--log-level", "debug", script}, out, logs))
	assert.Equal(t, "sessions.capacity = 128\n", out.String())
	assert.Contains(t, logs.String(), "level=DEBUG")

	out.Reset()
	require.NoError(t, Execute(context.Background(), []string{"describe", "--pop", "-c", cfg}, out, logs))
	assert.Contains(t, out.String(), "owner: cli")
	assert.Contains(t, out.String(), "sessions.stats.hits")

	out.Reset()
	require.NoError(t, Execute(context.Background(), []string{"--help"}, out, logs))
	assert.Contains(t, out.String(), "Usage:")
}
