package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		contents string
		assert   func(t *testing.T, cfg *Settings, err error)
	}{
		{
			name: "valid settings are parsed",
			contents: `verbose: true
package: main
import_prefix: example.com/pipes
library: pipes
limit: 10
`,
			assert: func(t *testing.T, cfg *Settings, err error) {
				require.NoError(t, err)
				require.Equal(t, &Settings{
					Verbose:      true,
					Package:      "main",
					ImportPrefix: "example.com/pipes",
					Library:      "pipes",
					Limit:        10,
				}, cfg)
			},
		},
		{
			name:     "empty file yields defaults",
			contents: "",
			assert: func(t *testing.T, cfg *Settings, err error) {
				require.NoError(t, err)
				require.Equal(t, &Settings{}, cfg)
			},
		},
		{
			name:     "malformed yaml returns parse error with line",
			contents: "verbose: true\nlimit: [1, 2]\n",
			assert: func(t *testing.T, cfg *Settings, err error) {
				var parseErr *pipeerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Equal(t, 2, parseErr.Line)
				require.Contains(t, parseErr.Message, "cannot unmarshal")
			},
		},
		{
			name:     "unknown key is rejected",
			contents: "verbos: true\n",
			assert: func(t *testing.T, cfg *Settings, err error) {
				var parseErr *pipeerrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Contains(t, parseErr.Message, "verbos")
			},
		},
		{
			name:     "package must be an identifier",
			contents: "package: not-a-package\n",
			assert: func(t *testing.T, cfg *Settings, err error) {
				var validationErr *pipeerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Equal(t, "package", validationErr.Field)
			},
		},
		{
			name:     "import prefix must be a path",
			contents: "import_prefix: /leading/slash\n",
			assert: func(t *testing.T, cfg *Settings, err error) {
				var validationErr *pipeerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Equal(t, "import_prefix", validationErr.Field)
			},
		},
		{
			name:     "negative limit is rejected",
			contents: "limit: -1\n",
			assert: func(t *testing.T, cfg *Settings, err error) {
				var validationErr *pipeerrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Equal(t, "limit", validationErr.Field)
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Parse([]byte(tc.contents), DefaultFile)
			tc.assert(t, cfg, err)
		})
	}
}

func TestLoadResolvesRelativeDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("library: pipes\noutput_dir: /abs/out\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "pipes"), cfg.Library)
	require.Equal(t, "/abs/out", cfg.OutputDir)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var parseErr *pipeerrors.ParseError
	require.ErrorAs(t, err, &parseErr)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, &Settings{}, cfg)
}

func TestValidateNil(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
}
