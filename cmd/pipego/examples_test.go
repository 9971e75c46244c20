package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExamplesCompileAndRun(t *testing.T) {
	t.Parallel()

	examples := filepath.Join("..", "..", "examples")
	library := filepath.Join(examples, "library")

	cases := []struct {
		file string
		want string
	}{
		{file: "counter.json", want: "{\"count\":3}\n"},
		{file: "search.yaml", want: "{\"content\":\"golang\",\"result\":{\"source\":\"pipego\"}}\n"},
		{file: "fanout.json", want: "{\"title\":\"hello\"}\n{\"title\":\"hello\"}\n"},
		{file: "tagged_twice.json", want: "{\"count\":1}\n"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.file, func(t *testing.T) {
			t.Parallel()
			doc := filepath.Join(examples, tc.file)

			stdout, _, err := execute(t, "--library", library, "run", doc)
			require.NoError(t, err)
			require.Equal(t, tc.want, stdout)

			stdout, _, err = execute(t, "--library", library, "compile", "--package", "main", "--import-prefix", "example.com/pipes", doc)
			require.NoError(t, err)
			require.Contains(t, stdout, "func main() {")
		})
	}
}
