package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPrintsJSONLines(t *testing.T) {
	t.Parallel()

	doc := writeFile(t, t.TempDir(), "counter.json", counterDoc)
	stdout, _, err := execute(t, "run", doc)
	require.NoError(t, err)
	require.Equal(t, "{\"count\":3}\n", stdout)
}

func TestRunUsesSuppliedInputs(t *testing.T) {
	t.Parallel()

	doc := writeFile(t, t.TempDir(), "prompt.yaml", promptDoc)

	stdout, _, err := execute(t, "run", doc)
	require.NoError(t, err)
	require.Equal(t, "{\"content\":\"golang\"}\n", stdout)

	stdout, _, err = execute(t, "run", "-i", "query=rust", doc)
	require.NoError(t, err)
	require.Equal(t, "{\"content\":\"rust\"}\n", stdout)

	_, _, err = execute(t, "run", "-i", "query", doc)
	require.ErrorContains(t, err, "expected name=value")
}

func TestRunLimit(t *testing.T) {
	t.Parallel()

	doc := writeFile(t, t.TempDir(), "endless.json", `{
	  "modules": [{"id": "a", "type": "forever"}, {"id": "b", "type": "output"}],
	  "wires": [{"id": "w", "src": {"moduleid": "a", "id": "_OUTPUT"}, "tgt": {"moduleid": "b", "id": "_INPUT"}}]
	}`)
	stdout, _, err := execute(t, "run", "--limit", "2", doc)
	require.NoError(t, err)
	require.Equal(t, "{}\n{}\n", stdout)
}

func TestRunLimitFromSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := writeFile(t, dir, "endless.json", `{
	  "modules": [{"id": "a", "type": "forever"}, {"id": "b", "type": "output"}],
	  "wires": [{"id": "w", "src": {"moduleid": "a", "id": "_OUTPUT"}, "tgt": {"moduleid": "b", "id": "_INPUT"}}]
	}`)
	settings := writeFile(t, dir, "settings.yaml", "limit: 3\n")

	stdout, _, err := execute(t, "--config", settings, "run", doc)
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 3)
}

func TestRunInteractiveNeedsTerminal(t *testing.T) {
	t.Parallel()

	doc := writeFile(t, t.TempDir(), "prompt.yaml", promptDoc)
	_, _, err := execute(t, "run", "--interactive", doc)
	require.ErrorContains(t, err, "requires a terminal")
}

func TestRunVerboseTracesBindings(t *testing.T) {
	t.Parallel()

	doc := writeFile(t, t.TempDir(), "counter.json", counterDoc)
	_, stderr, err := execute(t, "-v", "run", doc)
	require.NoError(t, err)
	require.Contains(t, stderr, "c = count(t)")
}

func TestRunMissingDocument(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestParseInputs(t *testing.T) {
	t.Parallel()

	values, err := parseInputs([]string{"a=1", "b=x=y", "a=2"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "2", "b": "x=y"}, values)

	_, err = parseInputs([]string{"=1"})
	require.Error(t, err)
}
