package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-planteuf/framework/factory"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_PATH", ":memory:")
	root := newRootCmd(factory.New())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := root.Execute()
	return out.String(), err
}

// unsetForTest clears name and restores it when the test ends.
func unsetForTest(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

// ============================================================================
// keys
// ============================================================================

func TestKeys_ListsEveryRegistration(t *testing.T) {
	out, err := run(t, "keys")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "Key[*task.Orchestrator]")
	assert.Contains(t, lines, "Key[*app.TaskController]")
	assert.Contains(t, lines, "Key[*slog.Logger#store]")
	assert.IsNonDecreasing(t, lines)
}

func TestKeys_Filters(t *testing.T) {
	out, err := run(t, "keys", "--type", "*slog.Logger", "--named")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Key[*slog.Logger#factory]",
		"Key[*slog.Logger#http]",
		"Key[*slog.Logger#store]",
		"Key[*slog.Logger#task]",
	}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestKeys_TypeIncludesDeclaredSubtypes(t *testing.T) {
	out, err := run(t, "keys", "-t", "store.DocumentStore")
	require.NoError(t, err)
	assert.Equal(t, "Key[*store.SQLiteStore]\n", out)
}

func TestKeys_UnknownType(t *testing.T) {
	_, err := run(t, "keys", "--type", "slog.Logger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no registration uses type "slog.Logger"`)
}

// ============================================================================
// graph
// ============================================================================

func TestGraph_JSON(t *testing.T) {
	out, err := run(t, "graph", "--format", "json")
	require.NoError(t, err)

	var g factory.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.NotEmpty(t, g.Nodes)
	assert.Contains(t, g.Edges, factory.Edge{
		From: "Key[*task.Orchestrator]",
		To:   "Key[store.DocumentStore]",
	})
}

func TestGraph_DOTByDefault(t *testing.T) {
	out, err := run(t, "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph factory {"), out)
}

func TestGraph_UnknownFormat(t *testing.T) {
	_, err := run(t, "graph", "-f", "svg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported graph format")
}

// ============================================================================
// --config
// ============================================================================

func TestExportConfigFile(t *testing.T) {
	unsetForTest(t, "APP_NAME")
	unsetForTest(t, "REDACT_KEYS")
	t.Setenv("APP_PORT", "7000")

	path := filepath.Join(t.TempDir(), "planteuf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: from-yaml
  port: 9000
redact:
  keys: [password, cookie]
`), 0o644))

	require.NoError(t, exportConfigFile(path))
	assert.Equal(t, "from-yaml", os.Getenv("APP_NAME"))
	assert.Equal(t, "7000", os.Getenv("APP_PORT"), "environment wins over the file")
	assert.Equal(t, "password,cookie", os.Getenv("REDACT_KEYS"))
}

func TestExportConfigFile_Missing(t *testing.T) {
	err := exportConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestExportConfigFile_EmptyPathIsNoop(t *testing.T) {
	require.NoError(t, exportConfigFile(""))
}

func TestSetVersion(t *testing.T) {
	old := rootCmd.Version
	t.Cleanup(func() { SetVersion(old) })

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", rootCmd.Version)
}
