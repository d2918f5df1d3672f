package internal

import (
	"strings"
	"unicode"

	"github.com/lychee-technology/apigen"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// canonicalName picks the registry key for a schema: its title, then the
// component name it is registered under, then fallback, then Unknown<N>.
func canonicalName(query apigen.SchemaQuery, registry *namedTypeRegistry, schema apigen.SchemaRef, fallback string) string {
	if name := toTypeName(query.Title(schema)); name != "" {
		return name
	}
	if global, ok := query.GlobalName(schema); ok {
		if name := toTypeName(global); name != "" {
			return name
		}
	}
	if name := toTypeName(fallback); name != "" {
		return name
	}
	return registry.syntheticName(schema)
}

// toTypeName turns free text into a PascalCase identifier. Inner capitals
// are kept so "listEmployees" becomes "ListEmployees".
func toTypeName(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}

	name := b.String()
	if first := []rune(name)[0]; unicode.IsDigit(first) {
		name = "T" + name
	}
	return name
}
