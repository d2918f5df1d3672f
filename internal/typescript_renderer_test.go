package internal

import (
	"strings"
	"testing"

	"github.com/lychee-technology/apigen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScriptRenderer_Document(t *testing.T) {
	q, engine := newFixtureEngine(t, apigen.ResolverConfig{})
	_, err := engine.ResolveDocument(mustDefinition(t, q, "EmployeeDocument"), "")
	require.NoError(t, err)

	diags := newDiagnosticLog(nil)
	r := NewTypeScriptRenderer(engine.Registry(), diags)
	require.NoError(t, r.Render("EmployeeDocument"))
	out := string(r.Bytes())

	assert.True(t, strings.HasPrefix(out, "// Code generated by apigen. DO NOT EDIT."))
	for _, line := range []string{
		"export interface ResourceIdentifier<T extends string> {",
		"export interface Employee {",
		`  type: "employees";`,
		"  attributes: Record<string, unknown>;",
		`    manager: { data: ResourceIdentifier<"employees"> };`,
		`    subordinates?: { data: ResourceIdentifier<"employees">[] };`,
		"export interface EmployeeDocument {",
		"  data: Employee;",
		"  included?: Employee[];",
	} {
		assert.Contains(t, out, line)
	}

	// Relationships keep their declaration order.
	assert.Less(t, strings.Index(out, "    subordinates?:"), strings.Index(out, "    manager:"))

	// The self reference is emitted once, before the document using it.
	assert.Equal(t, 1, strings.Count(out, "export interface Employee {"))
	assert.Less(t, strings.Index(out, "export interface Employee {"), strings.Index(out, "export interface EmployeeDocument {"))
	assert.Empty(t, diags.Diagnostics())
}

func TestTypeScriptRenderer_Unions(t *testing.T) {
	q, engine := newFixtureEngine(t, apigen.ResolverConfig{})
	_, err := engine.ResolveDocument(mustDefinition(t, q, "ArticleDocument"), "")
	require.NoError(t, err)
	_, err = engine.ResolveDocument(mustDefinition(t, q, "NullableDocument"), "")
	require.NoError(t, err)

	r := NewTypeScriptRenderer(engine.Registry(), nil)
	require.NoError(t, r.Render("ArticleDocument", "NullableDocument"))
	out := string(r.Bytes())

	assert.Contains(t, out, "  data: Article | Video;")
	assert.Contains(t, out, "  included?: (Person | Comment)[];")
	assert.Contains(t, out, `    author?: { data: ResourceIdentifier<"people"> };`)
	assert.Contains(t, out, "export interface NullableDocument {\n  data: Person;\n}")
	assert.Equal(t, 1, strings.Count(out, "export interface Person {"), "shared types render once")
}

func TestTypeScriptRenderer_Diagnostics(t *testing.T) {
	q, engine := newFixtureEngine(t, apigen.ResolverConfig{})
	_, err := engine.ResolveResource(mustDefinition(t, q, "Article"))
	require.NoError(t, err)

	diags := newDiagnosticLog(nil)
	r := NewTypeScriptRenderer(engine.Registry(), diags)
	require.NoError(t, r.Render("Article", "Article"))

	got := diags.Diagnostics()
	require.Len(t, got, 2)
	assert.Equal(t, apigen.DiagnosticDanglingRelationship, got[0].Kind)
	assert.Equal(t, "Article", got[0].Name)
	assert.Equal(t, apigen.DiagnosticDuplicateRender, got[1].Kind)

	err = r.Render("Missing")
	require.Error(t, err)
}

func TestTypeScriptRenderer_MetaOnlyDocument(t *testing.T) {
	q, engine := newFixtureEngine(t, apigen.ResolverConfig{})
	_, err := engine.ResolveDocument(mustDefinition(t, q, "MetaOnlyDocument"), "")
	require.NoError(t, err)

	r := NewTypeScriptRenderer(engine.Registry(), nil)
	require.NoError(t, r.Render("MetaOnlyDocument"))
	assert.Contains(t, string(r.Bytes()), "export interface MetaOnlyDocument {\n}")
}

func TestTSPropertyName(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{input: "author", expect: "author"},
		{input: "$meta", expect: "$meta"},
		{input: "first-name", expect: `"first-name"`},
		{input: "1st", expect: `"1st"`},
		{input: "with space", expect: `"with space"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, tsPropertyName(tt.input))
		})
	}
}
