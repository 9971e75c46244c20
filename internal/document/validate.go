package document

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Validate checks every module and wire of the document and reports all
// problems at once.
func Validate(doc *Document) error {
	if doc == nil {
		return pipeerrors.NewValidationError("document", "document is empty", nil)
	}

	v := pipeline.GetValidator()
	var errs error
	for i, m := range doc.Modules {
		if err := v.Struct(m); err != nil {
			errs = multierr.Append(errs, convertValidationError(fmt.Sprintf("modules[%d]", i), err))
		}
		if m.Type == "loop" {
			embed, ok := m.Embed()
			if !ok {
				errs = multierr.Append(errs, pipeerrors.NewValidationError(fmt.Sprintf("modules[%d].conf.embed.value", i), "loop module has no embedded module", nil))
				continue
			}
			if err := v.Struct(embed); err != nil {
				errs = multierr.Append(errs, convertValidationError(fmt.Sprintf("modules[%d].conf.embed.value", i), err))
			}
		}
	}
	for i, w := range doc.Wires {
		if err := v.Struct(w); err != nil {
			errs = multierr.Append(errs, convertValidationError(fmt.Sprintf("wires[%d]", i), err))
		}
	}

	if errs != nil {
		return pipeerrors.NewValidationError("document", errs.Error(), errs)
	}
	return nil
}

func convertValidationError(prefix string, err error) error {
	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := prefix + "." + jsonFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return pipeerrors.NewValidationError(field, msg, err)
	}

	return pipeerrors.NewValidationError(prefix, err.Error(), err)
}

// jsonFieldName renders the failing field the way it is spelled in the
// document, e.g. "src.moduleid".
func jsonFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return strings.Join(parts, ".")
}

func sortedKeys(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}
