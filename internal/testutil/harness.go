// Package testutil holds the harness used by application-level tests: it
// writes configuration and script files to a temporary directory, builds an
// App over them and captures everything it prints.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/mgmtgrid/internal/app"
	"github.com/vk/mgmtgrid/internal/hcl_adapter"
	"github.com/vk/mgmtgrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a harness run.
type HarnessResult struct {
	Output    string
	LogOutput string
	// Err is the startup error, or the script error when startup succeeded.
	Err error
	App *app.App
}

// Lines splits Output into its non-empty lines.
func (r *HarnessResult) Lines() []string {
	var lines []string
	for _, l := range strings.Split(r.Output, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// RunScriptTest writes files into a temporary directory, starts an App on
// every file under "config/" and runs every file under "scripts/" against
// it. Paths in files are relative to the temporary root. With no modules the
// built-in component kinds are used.
func RunScriptTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	scriptDir := filepath.Join(root, "scripts")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	var scripts []string
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		if strings.HasPrefix(filepath.ToSlash(name), "scripts/") {
			scripts = append(scripts, p)
		}
	}
	sort.Strings(scripts)

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	cfg, err := app.NewConfig(app.Config{
		ConfigPaths: []string{configDir},
		LogLevel:    "debug",
		LogFormat:   "text",
		LogOutput:   logs,
	})
	require.NoError(t, err)

	result := &HarnessResult{}
	result.App, result.Err = app.NewApp(out, cfg, hcl_adapter.NewLoader(), modules...)
	if result.Err == nil && len(scripts) > 0 {
		result.Err = result.App.RunScripts(context.Background(), scriptDir)
	}

	if os.Getenv("MGMTGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	result.Output = out.String()
	result.LogOutput = logs.String()
	return result
}
