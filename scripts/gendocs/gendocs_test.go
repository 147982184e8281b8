package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	sharedcfg "github.com/leapstack-labs/households/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFieldsCoverDefaults(t *testing.T) {
	documented := make(map[string]bool)
	for _, f := range configFields {
		documented[f.Name] = true
	}
	for key := range sharedcfg.Defaults() {
		assert.True(t, documented[key], "config key %q is not documented", key)
	}
}

func TestGenerateConfigDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateConfigDocs(dir))

	content, err := os.ReadFile(filepath.Join(dir, "configuration.md"))
	require.NoError(t, err)
	doc := string(content)

	assert.Contains(t, doc, "| `dependent_weight` | float | `0.3` | `HOUSEHOLDS_DEPENDENT_WEIGHT` |")
	assert.Contains(t, doc, "```yaml\n")
	assert.Equal(t, 0, strings.Count(doc, "```")%2, "unbalanced code fences")
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	for _, name := range []string{"index", "run", "validate", "describe", "history", "history-show", "query", "query-schema", "init"} {
		_, err := os.Stat(filepath.Join(dir, name+".md"))
		assert.NoError(t, err, "expected %s.md", name)
	}

	run, err := os.ReadFile(filepath.Join(dir, "run.md"))
	require.NoError(t, err)
	assert.Contains(t, string(run), "households run [flags]")
	assert.Contains(t, string(run), "| `--dependent-weight` | `0` | `dependent_weight` |")

	query, err := os.ReadFile(filepath.Join(dir, "query.md"))
	require.NoError(t, err)
	assert.Contains(t, string(query), "| `-f, --format` | `table` |  |")
	assert.Contains(t, string(query), "[`query schema`](/cli/query-schema)")

	show, err := os.ReadFile(filepath.Join(dir, "history-show.md"))
	require.NoError(t, err)
	assert.Contains(t, string(show), "# households history show")
	assert.Contains(t, string(show), "[`history`](/cli/history)")
}

func TestMarkdownWriterTable(t *testing.T) {
	w := NewMarkdownWriter()
	w.Table([]string{"a", "b"}, [][]string{{"x|y", "z"}})
	assert.Equal(t, "| a | b |\n| --- | --- |\n| x\\|y | z |\n\n", string(w.Bytes()))
}

func TestCleanExample(t *testing.T) {
	got := cleanExample("  # first\n  households run\n\n    nested")
	assert.Equal(t, "# first\nhouseholds run\n\n  nested", got)
}
