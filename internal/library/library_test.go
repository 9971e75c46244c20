package library

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pipego/internal/document"
	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/logger"
	"github.com/alexisbeaulieu97/pipego/internal/operator"
	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

const counter = `{
  "modules": [
    {"id": "t", "type": "truncate", "conf": {"count": {"type": "number", "value": 3}}},
    {"id": "c", "type": "count"}
  ],
  "wires": [{"id": "w", "src": {"moduleid": "t", "id": "_OUTPUT"}, "tgt": {"moduleid": "c", "id": "_INPUT"}}]
}`

func uses(sub string) string {
	return `{
  "modules": [{"id": "x", "type": "pipe:` + sub + `"}, {"id": "o", "type": "output"}],
  "wires": [{"id": "w", "src": {"moduleid": "x", "id": "_OUTPUT"}, "tgt": {"moduleid": "o", "id": "_INPUT"}}]
}`
}

func writeDocs(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func parse(t *testing.T, data string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(data), "outer.json")
	require.NoError(t, err)
	return doc
}

func newRegistry(t *testing.T) *operator.Registry {
	t.Helper()
	reg, err := operator.NewDefaultRegistry(nil)
	require.NoError(t, err)
	return reg
}

func TestResolveCompilesDependenciesFirst(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		"counter.json": counter,
		"middle.json":  uses("counter"),
		"notes.txt":    "ignored",
	})
	reg := newRegistry(t)
	lib := New(dir, reg, Options{ImportPrefix: "example.com/pipes"})

	doc := parse(t, uses("middle"))
	require.NoError(t, lib.Resolve(doc))

	compiled := lib.Compiled()
	require.Len(t, compiled, 2)
	require.Equal(t, "counter", compiled[0].Name)
	require.Equal(t, "middle", compiled[1].Name)

	op, err := reg.Lookup("pipe:middle")
	require.NoError(t, err)
	require.Equal(t, "middle.Middle", op.Symbol)
	require.Equal(t, "example.com/pipes/middle", op.ImportPath)

	p, err := engine.BuildPipe(doc, "outer")
	require.NoError(t, err)
	out, err := engine.Assemble(pipeline.NewContext(), p, reg, nil)
	require.NoError(t, err)
	records, err := stream.Collect(out, 0)
	require.NoError(t, err)
	require.Equal(t, []stream.Record{{"count": float64(3)}}, records)
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{"counter.yaml": `modules:
  - id: t
    type: truncate
    conf:
      count: {type: number, value: 1}
  - id: c
    type: count
wires:
  - id: w
    src: {moduleid: t, id: _OUTPUT}
    tgt: {moduleid: c, id: _INPUT}
`})
	reg := newRegistry(t)
	lib := New(dir, reg, Options{})

	doc := parse(t, uses("counter"))
	require.NoError(t, lib.Resolve(doc))
	require.NoError(t, lib.Resolve(doc))
	require.Len(t, lib.Compiled(), 1)
	require.True(t, reg.Has("pipe:counter"))
}

func TestResolveDetectsCycles(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		"a.json": uses("b"),
		"b.json": uses("a"),
	})
	lib := New(dir, newRegistry(t), Options{})

	err := lib.Resolve(parse(t, uses("a")))
	var validationErr *pipeerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, err.Error(), "a -> b -> a")
}

func TestResolveReportsMissingPipe(t *testing.T) {
	t.Parallel()

	lib := New(t.TempDir(), newRegistry(t), Options{})

	err := lib.Resolve(parse(t, uses("ghost")))
	var pluginErr *pipeerrors.PluginError
	require.ErrorAs(t, err, &pluginErr)
	require.ErrorIs(t, err, operator.ErrNotFound)
	require.Equal(t, "pipe:ghost", pluginErr.Plugin)
}

func TestResolveLogsRejectedDocuments(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{"broken.json": `{"modules": [{"id": "a"}]}`})
	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "error", Writer: buf})
	require.NoError(t, err)

	lib := New(dir, newRegistry(t), Options{Logger: log})
	require.Error(t, lib.Resolve(parse(t, uses("broken"))))

	out := buf.String()
	require.Contains(t, out, `"level":"error"`)
	require.Contains(t, out, "sub-pipeline rejected")
	require.Contains(t, out, filepath.Join(dir, "broken.json"))
}

func TestResolveWithoutDirectory(t *testing.T) {
	t.Parallel()

	lib := New("", newRegistry(t), Options{})
	require.NoError(t, lib.Resolve(parse(t, uses("ghost"))))
	require.Empty(t, lib.Compiled())
}

func TestScan(t *testing.T) {
	t.Parallel()

	dir := writeDocs(t, map[string]string{
		"b.yml":       "{}",
		"b.json":      "{}",
		"a.yaml":      "{}",
		"readme.md":   "",
		"inner_p.yml": "{}",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	entries, err := Scan(dir)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Name: "a", Path: filepath.Join(dir, "a.yaml")},
		{Name: "b", Path: filepath.Join(dir, "b.json")},
		{Name: "inner_p", Path: filepath.Join(dir, "inner_p.yml")},
	}, entries)

	e, ok := find(entries, "Inner P")
	require.True(t, ok)
	require.Equal(t, "inner_p", e.Name)
	_, ok = find(entries, "c")
	require.False(t, ok)

	_, err = Scan(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
