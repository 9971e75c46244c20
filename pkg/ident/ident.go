// Package ident maps arbitrary module, port and pipe names onto valid,
// deterministic Go identifiers.
package ident

import (
	"go/token"
	"strings"
	"unicode"
)

// reserved lists names the generated pipe function already binds; a module
// canonicalised onto one of them would shadow it.
var reserved = map[string]struct{}{
	"ctx":      {},
	"input":    {},
	"conf":     {},
	"opts":     {},
	"forever":  {},
	"declared": {},
	"pipeline": {},
	"stream":   {},
	"modules":  {},
}

// Canonicalize returns the identifier used for name everywhere inside a
// compiled pipe. Characters outside [A-Za-z0-9_] become underscores, a
// leading digit is prefixed with an underscore, and keywords or reserved
// names get a trailing underscore. A name with nothing but underscores left
// is prefixed with "m" so it never becomes the blank identifier. The mapping
// is pure: the same name always yields the same identifier.
func Canonicalize(name string) string {
	if name == "" {
		return "m_"
	}

	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		if i == 0 && r >= '0' && r <= '9' {
			b.WriteByte('_')
		}
		if r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	id := b.String()
	if strings.Trim(id, "_") == "" {
		return "m" + id
	}
	if token.IsKeyword(id) {
		return id + "_"
	}
	if _, ok := reserved[id]; ok {
		return id + "_"
	}
	return id
}

// Exported converts a canonical identifier into an exported CamelCase name,
// e.g. "pipe_a1b2" becomes "PipeA1b2".
func Exported(name string) string {
	parts := strings.FieldsFunc(Canonicalize(name), func(r rune) bool { return r == '_' })

	var b strings.Builder
	for _, part := range parts {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		return "P" + out
	}
	return out
}

// Package returns the Go package name used for a generated pipe.
func Package(name string) string {
	return Canonicalize(strings.ToLower(name))
}
