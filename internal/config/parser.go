package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load reads the settings file at path. An empty path falls back to
// DefaultFile in the working directory; when that file does not exist the
// zero Settings are returned. Relative directories in the file are resolved
// against the file's own directory.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, pipeerrors.NewParseError(path, 0, err)
	}

	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes and validates settings. Unknown keys are rejected.
func Parse(data []byte, source string) (*Settings, error) {
	var cfg Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, pipeerrors.NewParseError(source, extractLine(err), err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field of cfg.
func Validate(cfg *Settings) error {
	if cfg == nil {
		return pipeerrors.NewValidationError("settings", "settings are nil", nil)
	}
	if err := pipeline.GetValidator().Struct(cfg); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func (s *Settings) resolvePaths(base string) {
	if s.Library != "" && !filepath.IsAbs(s.Library) {
		s.Library = filepath.Join(base, s.Library)
	}
	if s.OutputDir != "" && !filepath.IsAbs(s.OutputDir) {
		s.OutputDir = filepath.Join(base, s.OutputDir)
	}
}

// convertValidationError normalizes validator errors into validation errors
// named after the settings key.
func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		ve := ves[0]
		field := yamlFieldName(ve.Field())
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return pipeerrors.NewValidationError(field, msg, err)
	}
	return pipeerrors.NewValidationError("settings", err.Error(), err)
}

var yamlNames = map[string]string{
	"OutputDir":    "output_dir",
	"ImportPrefix": "import_prefix",
}

func yamlFieldName(field string) string {
	if name, ok := yamlNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
