package document

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "pipego://document.schema.json"

//go:embed schema.json
var schemaSource string

var (
	schemaOnce sync.Once
	schemaInst *jsonschema.Schema
	schemaErr  error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schemaInst, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schemaInst, schemaErr
}

// ValidateSchema checks a decoded document against the pipe document
// schema. raw must hold the values encoding/json produces.
func ValidateSchema(raw map[string]any) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	return schema.Validate(raw)
}
