package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const counterDoc = `{
  "modules": [
    {"id": "t", "type": "truncate", "conf": {"count": {"type": "number", "value": 3}}},
    {"id": "c", "type": "count"}
  ],
  "wires": [{"id": "w", "src": {"moduleid": "t", "id": "_OUTPUT"}, "tgt": {"moduleid": "c", "id": "_INPUT"}}]
}`

const promptDoc = `modules:
  - id: q
    type: textinput
    conf:
      name: {type: text, value: query}
      prompt: {type: text, value: Search for}
      position: {type: number, value: 0}
      default: {type: text, value: golang}
  - id: o
    type: output
wires:
  - id: w
    src: {moduleid: q, id: _OUTPUT}
    tgt: {moduleid: o, id: _INPUT}
`

const outerDoc = `{
  "modules": [{"id": "x", "type": "pipe:counter"}, {"id": "o", "type": "output"}],
  "wires": [{"id": "w", "src": {"moduleid": "x", "id": "_OUTPUT"}, "tgt": {"moduleid": "o", "id": "_INPUT"}}]
}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
