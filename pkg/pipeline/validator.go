package pipeline

import (
	"go/token"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	importPathPattern = regexp.MustCompile(`^[A-Za-z0-9._~-]+(/[A-Za-z0-9._~-]+)*$`)
)

// GetValidator returns the validator instance shared by operators, the
// document loader and the settings parser. Custom tags:
//
//	go_ident     a Go identifier other than the blank identifier
//	import_path  a slash-separated Go import path
//	file_path    a non-blank path without NUL bytes
func GetValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("go_ident", func(fl validator.FieldLevel) bool {
			name := fl.Field().String()
			return token.IsIdentifier(name) && name != "_"
		})

		_ = v.RegisterValidation("import_path", func(fl validator.FieldLevel) bool {
			return importPathPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("file_path", func(fl validator.FieldLevel) bool {
			return isValidFilePath(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// isValidFilePath performs syntactic validation of file paths without filesystem access
func isValidFilePath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	return !strings.Contains(path, "\x00")
}
