package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToTypeName(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{input: "Employee", expect: "Employee"},
		{input: "employee", expect: "Employee"},
		{input: "listEmployees 200 response", expect: "ListEmployees200Response"},
		{input: "get /articles/{id}", expect: "GetArticlesId"},
		{input: "article-document", expect: "ArticleDocument"},
		{input: "snake_case_name", expect: "SnakeCaseName"},
		{input: "404 error", expect: "T404Error"},
		{input: "  ", expect: ""},
		{input: "", expect: ""},
		{input: "--", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, toTypeName(tt.input))
		})
	}
}

func TestCanonicalName(t *testing.T) {
	h := newResolverHarness(t)

	// Title wins over the $defs name.
	assert.Equal(t, "Thing", canonicalName(h.query, h.registry, h.def(t, "TitledA"), "fallback"))
	// Global name wins over the fallback.
	assert.Equal(t, "Person", canonicalName(h.query, h.registry, h.def(t, "Person"), "fallback"))
	// Anonymous schemas use the fallback, then a synthetic name.
	anon := h.prop(t, "anonymous")
	assert.Equal(t, "ListThings", canonicalName(h.query, h.registry, anon, "list things"))
	assert.Equal(t, "Unknown1", canonicalName(h.query, h.registry, anon, ""))
	assert.Equal(t, "Unknown1", canonicalName(h.query, h.registry, anon, ""))
}
