package internal

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/lychee-technology/apigen"
	"gopkg.in/yaml.v3"
)

type openAPINode struct {
	schema  *openapi3.Schema
	pointer string
}

func (n openAPINode) Identity() any   { return n.schema }
func (n openAPINode) Location() string { return n.pointer }

// OpenAPIQuery answers resolver queries over an OpenAPI 3 document loaded by
// kin-openapi. The loader resolves $ref into shared nodes, so identity is the
// *openapi3.Schema pointer and components.schemas are the global names.
type OpenAPIQuery struct {
	doc           *openapi3.T
	source        string
	globalNames   map[*openapi3.Schema]string
	propertyOrder map[*openapi3.Schema][]string
}

var _ apigen.SchemaQuery = (*OpenAPIQuery)(nil)

// LoadOpenAPIQuery parses and ref-resolves an OpenAPI document.
func LoadOpenAPIQuery(ctx context.Context, data []byte, source string) (*OpenAPIQuery, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, apigen.NewSchemaLoadError(source, fmt.Errorf("load openapi document: %w", err))
	}
	q := NewOpenAPIQuery(doc, source)

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, apigen.NewSchemaLoadError(source, fmt.Errorf("read property order: %w", err))
	}
	q.recordPropertyOrder(&root)
	return q, nil
}

// NewOpenAPIQuery wraps a document whose references are already resolved.
func NewOpenAPIQuery(doc *openapi3.T, source string) *OpenAPIQuery {
	q := &OpenAPIQuery{
		doc:           doc,
		source:        source,
		globalNames:   make(map[*openapi3.Schema]string),
		propertyOrder: make(map[*openapi3.Schema][]string),
	}
	if doc.Components != nil {
		for name, ref := range doc.Components.Schemas {
			if ref != nil && ref.Value != nil {
				q.globalNames[ref.Value] = name
			}
		}
	}
	return q
}

// Document returns the underlying OpenAPI document.
func (q *OpenAPIQuery) Document() *openapi3.T {
	return q.doc
}

// Component returns a components.schemas entry.
func (q *OpenAPIQuery) Component(name string) (apigen.SchemaRef, bool) {
	if q.doc.Components == nil {
		return nil, false
	}
	ref, ok := q.doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, false
	}
	return openAPINode{schema: ref.Value, pointer: q.source + "#/components/schemas/" + escapePointer(name)}, true
}

// Wrap turns a schema reference found elsewhere in the document into a
// SchemaRef located at pointer.
func (q *OpenAPIQuery) Wrap(ref *openapi3.SchemaRef, pointer string) (apigen.SchemaRef, bool) {
	n, ok := q.fromRef(ref, q.source+pointer)
	if !ok {
		return nil, false
	}
	return n, true
}

func (q *OpenAPIQuery) fromRef(ref *openapi3.SchemaRef, pointer string) (openAPINode, bool) {
	if ref == nil || ref.Value == nil {
		return openAPINode{}, false
	}
	if ref.Ref != "" {
		pointer = q.source + ref.Ref
	}
	return openAPINode{schema: ref.Value, pointer: pointer}, true
}

func (q *OpenAPIQuery) node(s apigen.SchemaRef) openAPINode {
	n, ok := s.(openAPINode)
	if !ok {
		panic(fmt.Sprintf("OpenAPIQuery: foreign schema reference %T", s))
	}
	return n
}

func (q *OpenAPIQuery) child(parent openAPINode, ref *openapi3.SchemaRef, tokens ...string) (openAPINode, bool) {
	pointer := parent.pointer
	for _, t := range tokens {
		pointer += "/" + escapePointer(t)
	}
	return q.fromRef(ref, pointer)
}

func (q *OpenAPIQuery) shape(n openAPINode) schemaShape {
	if n.schema == nil {
		return shapeLeaf
	}
	return classifyShape(len(n.schema.OneOf), len(n.schema.AnyOf), len(n.schema.AllOf))
}

func openAPITypes(s *openapi3.Schema) []string {
	if s == nil || s.Type == nil {
		return nil
	}
	return *s.Type
}

func (q *OpenAPIQuery) DeepProperty(s apigen.SchemaRef, name string) (apigen.SchemaRef, bool) {
	found, ok := q.deepProperty(q.node(s), name, make(map[*openapi3.Schema]bool))
	if !ok {
		return nil, false
	}
	return found, true
}

func (q *OpenAPIQuery) deepProperty(n openAPINode, name string, seen map[*openapi3.Schema]bool) (openAPINode, bool) {
	if n.schema == nil || seen[n.schema] {
		return openAPINode{}, false
	}
	seen[n.schema] = true

	if ref, ok := n.schema.Properties[name]; ok {
		if prop, ok := q.child(n, ref, "properties", name); ok {
			return prop, true
		}
	}
	for i, ref := range n.schema.AllOf {
		part, ok := q.child(n, ref, "allOf", strconv.Itoa(i))
		if !ok {
			continue
		}
		if found, ok := q.deepProperty(part, name, seen); ok {
			return found, true
		}
	}
	return openAPINode{}, false
}

func (q *OpenAPIQuery) DeepPropertyNames(s apigen.SchemaRef) []string {
	var names []string
	seenName := make(map[string]struct{})
	seen := make(map[*openapi3.Schema]bool)
	var walk func(n openAPINode)
	walk = func(n openAPINode) {
		if n.schema == nil || seen[n.schema] {
			return
		}
		seen[n.schema] = true
		for _, name := range declaredOrder(q.propertyOrder[n.schema], n.schema.Properties) {
			if _, ok := seenName[name]; !ok {
				seenName[name] = struct{}{}
				names = append(names, name)
			}
		}
		for i, ref := range n.schema.AllOf {
			if part, ok := q.child(n, ref, "allOf", strconv.Itoa(i)); ok {
				walk(part)
			}
		}
	}
	walk(q.node(s))
	return names
}

func (q *OpenAPIQuery) IsComposite(s apigen.SchemaRef) bool {
	return q.shape(q.node(s)) == shapeComposite
}

func (q *OpenAPIQuery) Alternatives(s apigen.SchemaRef) []apigen.SchemaRef {
	n := q.node(s)
	if n.schema == nil {
		return nil
	}
	out := make([]apigen.SchemaRef, 0, len(n.schema.OneOf)+len(n.schema.AnyOf))
	for i, ref := range n.schema.OneOf {
		if alt, ok := q.child(n, ref, "oneOf", strconv.Itoa(i)); ok {
			out = append(out, alt)
		}
	}
	for i, ref := range n.schema.AnyOf {
		if alt, ok := q.child(n, ref, "anyOf", strconv.Itoa(i)); ok {
			out = append(out, alt)
		}
	}
	return out
}

func (q *OpenAPIQuery) IsArray(s apigen.SchemaRef) bool {
	n := q.node(s)
	types := openAPITypes(n.schema)
	if len(types) == 0 {
		return n.schema != nil && n.schema.Items != nil
	}
	return slices.Contains(types, openapi3.TypeArray)
}

func (q *OpenAPIQuery) IsObject(s apigen.SchemaRef) bool {
	return q.isObject(q.node(s), make(map[*openapi3.Schema]bool))
}

func (q *OpenAPIQuery) isObject(n openAPINode, seen map[*openapi3.Schema]bool) bool {
	if n.schema == nil || seen[n.schema] {
		return false
	}
	seen[n.schema] = true
	if types := openAPITypes(n.schema); len(types) > 0 {
		return slices.Contains(types, openapi3.TypeObject)
	}
	if len(n.schema.Properties) > 0 {
		return true
	}
	for i, ref := range n.schema.AllOf {
		if part, ok := q.child(n, ref, "allOf", strconv.Itoa(i)); ok && q.isObject(part, seen) {
			return true
		}
	}
	return false
}

func (q *OpenAPIQuery) Items(s apigen.SchemaRef) []apigen.SchemaRef {
	n := q.node(s)
	if n.schema == nil {
		return nil
	}
	if item, ok := q.child(n, n.schema.Items, "items"); ok {
		return []apigen.SchemaRef{item}
	}
	return nil
}

func (q *OpenAPIQuery) IsNullish(s apigen.SchemaRef) bool {
	n := q.node(s)
	if n.schema == nil {
		return false
	}
	if n.schema.Nullable || slices.Contains(openAPITypes(n.schema), openapi3.TypeNull) {
		return true
	}
	if slices.Contains(n.schema.Enum, nil) {
		return true
	}
	for _, alt := range q.Alternatives(s) {
		if q.IsNull(alt) {
			return true
		}
	}
	return false
}

func (q *OpenAPIQuery) IsNull(s apigen.SchemaRef) bool {
	types := openAPITypes(q.node(s).schema)
	return len(types) == 1 && types[0] == openapi3.TypeNull
}

func (q *OpenAPIQuery) AllowedValues(s apigen.SchemaRef) []any {
	n := q.node(s)
	if n.schema == nil {
		return nil
	}
	if len(n.schema.Enum) > 0 {
		return append([]any(nil), n.schema.Enum...)
	}
	// OpenAPI 3.1 documents carry const through as an extension.
	if v, ok := n.schema.Extensions["const"]; ok {
		return []any{v}
	}
	return nil
}

func (q *OpenAPIQuery) GlobalName(s apigen.SchemaRef) (string, bool) {
	name, ok := q.globalNames[q.node(s).schema]
	return name, ok
}

func (q *OpenAPIQuery) Title(s apigen.SchemaRef) string {
	n := q.node(s)
	if n.schema == nil {
		return ""
	}
	return n.schema.Title
}

func (q *OpenAPIQuery) RequiredKeys(s apigen.SchemaRef) []string {
	var keys []string
	seenKey := make(map[string]struct{})
	seen := make(map[*openapi3.Schema]bool)
	var walk func(n openAPINode)
	walk = func(n openAPINode) {
		if n.schema == nil || seen[n.schema] {
			return
		}
		seen[n.schema] = true
		for _, key := range n.schema.Required {
			if _, ok := seenKey[key]; !ok {
				seenKey[key] = struct{}{}
				keys = append(keys, key)
			}
		}
		for i, ref := range n.schema.AllOf {
			if part, ok := q.child(n, ref, "allOf", strconv.Itoa(i)); ok {
				walk(part)
			}
		}
	}
	walk(q.node(s))
	return keys
}
