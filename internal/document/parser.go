package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
)

// AnonymousName names pipes read from standard input.
const AnonymousName = "anonymous"

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load reads a pipe document from disk. A path of "-" reads standard input.
func Load(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, pipeerrors.NewParseError(path, 0, err)
	}
	return Parse(data, path)
}

// Parse decodes, normalises and validates a pipe document. source is used
// in error messages and to pick the format: .yaml and .yml sources are read
// as YAML, anything else as JSON unless the content is clearly not JSON.
func Parse(data []byte, source string) (*Document, error) {
	raw, err := decode(data, source)
	if err != nil {
		return nil, err
	}

	if err := ValidateSchema(raw); err != nil {
		return nil, pipeerrors.NewValidationError("document", "", err)
	}

	normalised := map[string]any{
		"modules": asList(raw["modules"]),
		"wires":   asList(raw["wires"]),
	}
	buf, err := json.Marshal(normalised)
	if err != nil {
		return nil, pipeerrors.NewParseError(source, 0, err)
	}
	doc := &Document{}
	if err := json.Unmarshal(buf, doc); err != nil {
		return nil, pipeerrors.NewParseError(source, 0, err)
	}
	doc.Raw = raw

	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Name derives a pipe name from the document path: its base name without
// extension, or AnonymousName for standard input.
func Name(path string) string {
	if path == "" || path == "-" {
		return AnonymousName
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Encode renders the document as it was read, as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	raw := d.Raw
	if raw == nil {
		raw = map[string]any{"modules": d.Modules, "wires": d.Wires}
	}
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func decode(data []byte, source string) (map[string]any, error) {
	var (
		value any
		err   error
	)
	if isYAML(data, source) {
		value, err = decodeYAML(data, source)
	} else {
		value, err = decodeJSON(data, source)
	}
	if err != nil {
		return nil, err
	}

	root, ok := value.(map[string]any)
	if !ok {
		return nil, pipeerrors.NewParseError(source, 0, fmt.Errorf("document root must be an object, got %T", value))
	}
	return root, nil
}

func isYAML(data []byte, source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] != '{'
}

func decodeJSON(data []byte, source string) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, pipeerrors.NewParseError(source, jsonLine(data, err), err)
	}
	return value, nil
}

// decodeYAML decodes YAML and converts the result to the value model
// encoding/json produces, so both formats feed the same pipeline.
func decodeYAML(data []byte, source string) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, pipeerrors.NewParseError(source, extractLine(err), err)
	}
	buf, err := json.Marshal(value)
	if err != nil {
		return nil, pipeerrors.NewParseError(source, 0, fmt.Errorf("unsupported YAML content: %w", err))
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, pipeerrors.NewParseError(source, 0, err)
	}
	return out, nil
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{t}
	}
}

func jsonLine(data []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
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
