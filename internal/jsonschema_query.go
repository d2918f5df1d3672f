package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/apigen"
)

// maxRefHops bounds $ref chains such as A -> B -> A.
const maxRefHops = 64

type jsonSchemaNode struct {
	schema  *jsonschema.Schema
	pointer string
}

func (n jsonSchemaNode) Identity() any   { return n.schema }
func (n jsonSchemaNode) Location() string { return n.pointer }

// JSONSchemaQuery answers resolver queries over a JSON Schema document.
// Entries of $defs and definitions are the globally named schemas.
type JSONSchemaQuery struct {
	root        *jsonschema.Schema
	source      string
	globalNames map[*jsonschema.Schema]string
}

var _ apigen.SchemaQuery = (*JSONSchemaQuery)(nil)

// NewJSONSchemaQuery parses a JSON Schema document. source prefixes every location.
func NewJSONSchemaQuery(data []byte, source string) (*JSONSchemaQuery, error) {
	var root jsonschema.Schema
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, apigen.NewSchemaLoadError(source, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err))
	}
	q, err := NewJSONSchemaQueryFromSchema(&root, source)
	if err != nil {
		return nil, err
	}

	orders, err := propertyOrders(data)
	if err != nil {
		return nil, apigen.NewSchemaLoadError(source, fmt.Errorf("read property order: %w", err))
	}
	for pointer, keys := range orders {
		if s, ok := q.lookupRef("#" + pointer); ok && len(s.PropertyOrder) == 0 {
			s.PropertyOrder = keys
		}
	}
	return q, nil
}

// NewJSONSchemaQueryFromSchema wraps an already decoded schema. References are
// checked up front so lookups never meet a dangling $ref. Properties are
// listed in PropertyOrder when the caller set it, sorted otherwise.
func NewJSONSchemaQueryFromSchema(root *jsonschema.Schema, source string) (*JSONSchemaQuery, error) {
	if root == nil {
		return nil, apigen.NewSchemaLoadError(source, fmt.Errorf("schema is nil"))
	}
	if _, err := root.Resolve(&jsonschema.ResolveOptions{}); err != nil {
		return nil, apigen.NewSchemaLoadError(source, fmt.Errorf("failed to resolve JSON schema: %w", err))
	}

	q := &JSONSchemaQuery{
		root:        root,
		source:      source,
		globalNames: make(map[*jsonschema.Schema]string),
	}
	for name, def := range q.defs() {
		if def != nil {
			q.globalNames[def] = name
		}
	}
	return q, nil
}

// defs returns the definitions table. A document carries either $defs or
// definitions, never both.
func (q *JSONSchemaQuery) defs() map[string]*jsonschema.Schema {
	if q.root.Defs != nil {
		return q.root.Defs
	}
	return q.root.Definitions
}

func (q *JSONSchemaQuery) defsKeyword() string {
	if q.root.Defs != nil {
		return "$defs"
	}
	return "definitions"
}

// Root returns the document root.
func (q *JSONSchemaQuery) Root() apigen.SchemaRef {
	return q.deref(jsonSchemaNode{schema: q.root, pointer: q.source + "#"})
}

// Definition returns the named $defs (or definitions) entry.
func (q *JSONSchemaQuery) Definition(name string) (apigen.SchemaRef, bool) {
	def, ok := q.defs()[name]
	if !ok || def == nil {
		return nil, false
	}
	pointer := q.source + "#/" + q.defsKeyword() + "/" + escapePointer(name)
	return q.deref(jsonSchemaNode{schema: def, pointer: pointer}), true
}

// DefinitionNames lists the definition entries in sorted order.
func (q *JSONSchemaQuery) DefinitionNames() []string {
	return sortedKeys(q.defs())
}

func (q *JSONSchemaQuery) node(s apigen.SchemaRef) jsonSchemaNode {
	n, ok := s.(jsonSchemaNode)
	if !ok {
		panic(fmt.Sprintf("JSONSchemaQuery: foreign schema reference %T", s))
	}
	return n
}

func (q *JSONSchemaQuery) child(parent jsonSchemaNode, s *jsonschema.Schema, tokens ...string) jsonSchemaNode {
	pointer := parent.pointer
	for _, t := range tokens {
		pointer += "/" + escapePointer(t)
	}
	return q.deref(jsonSchemaNode{schema: s, pointer: pointer})
}

// deref follows $ref until it reaches a schema without one.
func (q *JSONSchemaQuery) deref(n jsonSchemaNode) jsonSchemaNode {
	for hops := 0; n.schema != nil && n.schema.Ref != "" && hops < maxRefHops; hops++ {
		target, ok := q.lookupRef(n.schema.Ref)
		if !ok {
			break
		}
		n = jsonSchemaNode{schema: target, pointer: q.source + n.schema.Ref}
	}
	return n
}

// lookupRef resolves a document-local JSON pointer reference.
func (q *JSONSchemaQuery) lookupRef(ref string) (*jsonschema.Schema, bool) {
	if !strings.HasPrefix(ref, "#") {
		return nil, false
	}
	cur := q.root
	fragment := strings.TrimPrefix(ref, "#")
	if fragment == "" {
		return cur, true
	}
	tokens := strings.Split(strings.TrimPrefix(fragment, "/"), "/")
	for i := 0; i < len(tokens) && cur != nil; i++ {
		tok := unescapePointer(tokens[i])
		switch tok {
		case "$defs", "definitions", "properties":
			if i+1 >= len(tokens) {
				return nil, false
			}
			i++
			key := unescapePointer(tokens[i])
			switch tok {
			case "$defs":
				cur = cur.Defs[key]
			case "definitions":
				cur = cur.Definitions[key]
			default:
				cur = cur.Properties[key]
			}
		case "items":
			cur = cur.Items
		case "allOf", "anyOf", "oneOf", "prefixItems":
			if i+1 >= len(tokens) {
				return nil, false
			}
			i++
			idx, err := strconv.Atoi(tokens[i])
			if err != nil {
				return nil, false
			}
			list := map[string][]*jsonschema.Schema{
				"allOf": cur.AllOf, "anyOf": cur.AnyOf, "oneOf": cur.OneOf, "prefixItems": cur.PrefixItems,
			}[tok]
			if idx < 0 || idx >= len(list) {
				return nil, false
			}
			cur = list[idx]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func (q *JSONSchemaQuery) DeepProperty(s apigen.SchemaRef, name string) (apigen.SchemaRef, bool) {
	found, ok := q.deepProperty(q.node(s), name, make(map[*jsonschema.Schema]bool))
	if !ok {
		return nil, false
	}
	return found, true
}

func (q *JSONSchemaQuery) deepProperty(n jsonSchemaNode, name string, seen map[*jsonschema.Schema]bool) (jsonSchemaNode, bool) {
	if n.schema == nil || seen[n.schema] {
		return jsonSchemaNode{}, false
	}
	seen[n.schema] = true

	if prop, ok := n.schema.Properties[name]; ok && prop != nil {
		return q.child(n, prop, "properties", name), true
	}
	for i, part := range n.schema.AllOf {
		if found, ok := q.deepProperty(q.child(n, part, "allOf", strconv.Itoa(i)), name, seen); ok {
			return found, true
		}
	}
	return jsonSchemaNode{}, false
}

func (q *JSONSchemaQuery) DeepPropertyNames(s apigen.SchemaRef) []string {
	var names []string
	seenName := make(map[string]struct{})
	var walk func(n jsonSchemaNode, seen map[*jsonschema.Schema]bool)
	walk = func(n jsonSchemaNode, seen map[*jsonschema.Schema]bool) {
		if n.schema == nil || seen[n.schema] {
			return
		}
		seen[n.schema] = true
		for _, name := range declaredOrder(n.schema.PropertyOrder, n.schema.Properties) {
			if _, ok := seenName[name]; !ok {
				seenName[name] = struct{}{}
				names = append(names, name)
			}
		}
		for i, part := range n.schema.AllOf {
			walk(q.child(n, part, "allOf", strconv.Itoa(i)), seen)
		}
	}
	walk(q.node(s), make(map[*jsonschema.Schema]bool))
	return names
}

func (q *JSONSchemaQuery) shape(n jsonSchemaNode) schemaShape {
	if n.schema == nil {
		return shapeLeaf
	}
	return classifyShape(len(n.schema.OneOf), len(n.schema.AnyOf), len(n.schema.AllOf))
}

func (q *JSONSchemaQuery) IsComposite(s apigen.SchemaRef) bool {
	return q.shape(q.node(s)) == shapeComposite
}

func (q *JSONSchemaQuery) Alternatives(s apigen.SchemaRef) []apigen.SchemaRef {
	n := q.node(s)
	if n.schema == nil {
		return nil
	}
	out := make([]apigen.SchemaRef, 0, len(n.schema.OneOf)+len(n.schema.AnyOf))
	for i, alt := range n.schema.OneOf {
		out = append(out, q.child(n, alt, "oneOf", strconv.Itoa(i)))
	}
	for i, alt := range n.schema.AnyOf {
		out = append(out, q.child(n, alt, "anyOf", strconv.Itoa(i)))
	}
	return out
}

func jsonTypes(s *jsonschema.Schema) []string {
	if s == nil {
		return nil
	}
	if s.Type != "" {
		return []string{s.Type}
	}
	return s.Types
}

func (q *JSONSchemaQuery) IsArray(s apigen.SchemaRef) bool {
	n := q.node(s)
	types := jsonTypes(n.schema)
	if len(types) == 0 {
		return n.schema != nil && (n.schema.Items != nil || len(n.schema.PrefixItems) > 0)
	}
	return slices.Contains(types, "array")
}

func (q *JSONSchemaQuery) IsObject(s apigen.SchemaRef) bool {
	return q.isObject(q.node(s), make(map[*jsonschema.Schema]bool))
}

func (q *JSONSchemaQuery) isObject(n jsonSchemaNode, seen map[*jsonschema.Schema]bool) bool {
	if n.schema == nil || seen[n.schema] {
		return false
	}
	seen[n.schema] = true
	if types := jsonTypes(n.schema); len(types) > 0 {
		return slices.Contains(types, "object")
	}
	if len(n.schema.Properties) > 0 {
		return true
	}
	for i, part := range n.schema.AllOf {
		if q.isObject(q.child(n, part, "allOf", strconv.Itoa(i)), seen) {
			return true
		}
	}
	return false
}

func (q *JSONSchemaQuery) Items(s apigen.SchemaRef) []apigen.SchemaRef {
	n := q.node(s)
	if n.schema == nil {
		return nil
	}
	if len(n.schema.PrefixItems) > 0 {
		out := make([]apigen.SchemaRef, 0, len(n.schema.PrefixItems))
		for i, item := range n.schema.PrefixItems {
			out = append(out, q.child(n, item, "prefixItems", strconv.Itoa(i)))
		}
		return out
	}
	if n.schema.Items != nil {
		return []apigen.SchemaRef{q.child(n, n.schema.Items, "items")}
	}
	return nil
}

func (q *JSONSchemaQuery) IsNullish(s apigen.SchemaRef) bool {
	n := q.node(s)
	if n.schema == nil {
		return false
	}
	if slices.Contains(jsonTypes(n.schema), "null") {
		return true
	}
	if n.schema.Const != nil && *n.schema.Const == nil {
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

func (q *JSONSchemaQuery) IsNull(s apigen.SchemaRef) bool {
	n := q.node(s)
	types := jsonTypes(n.schema)
	return len(types) == 1 && types[0] == "null"
}

func (q *JSONSchemaQuery) AllowedValues(s apigen.SchemaRef) []any {
	n := q.node(s)
	if n.schema == nil {
		return nil
	}
	if len(n.schema.Enum) > 0 {
		return append([]any(nil), n.schema.Enum...)
	}
	if n.schema.Const != nil {
		return []any{*n.schema.Const}
	}
	return nil
}

func (q *JSONSchemaQuery) GlobalName(s apigen.SchemaRef) (string, bool) {
	name, ok := q.globalNames[q.node(s).schema]
	return name, ok
}

func (q *JSONSchemaQuery) Title(s apigen.SchemaRef) string {
	n := q.node(s)
	if n.schema == nil {
		return ""
	}
	return n.schema.Title
}

func (q *JSONSchemaQuery) RequiredKeys(s apigen.SchemaRef) []string {
	var keys []string
	seenKey := make(map[string]struct{})
	var walk func(n jsonSchemaNode, seen map[*jsonschema.Schema]bool)
	walk = func(n jsonSchemaNode, seen map[*jsonschema.Schema]bool) {
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
		for i, part := range n.schema.AllOf {
			walk(q.child(n, part, "allOf", strconv.Itoa(i)), seen)
		}
	}
	walk(q.node(s), make(map[*jsonschema.Schema]bool))
	return keys
}

func escapePointer(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~", "~0"), "/", "~1")
}

func unescapePointer(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
}

// propertyOrders reads the raw document once and records, for every schema
// object with a properties member, the order its property names appear in.
// Keys are JSON pointers of the owning schema, "" for the root.
func propertyOrders(data []byte) (map[string][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	orders := make(map[string][]string)
	if err := walkPropertyOrder(dec, "", "", false, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// walkPropertyOrder consumes one JSON value. isProperties marks the value of a
// properties member, whose keys are recorded against owner.
func walkPropertyOrder(dec *json.Decoder, pointer, owner string, isProperties bool, orders map[string][]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		var keys []string
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("unexpected object key %v at %q", keyTok, pointer)
			}
			if isProperties {
				keys = append(keys, key)
			}
			childIsProperties := !isProperties && key == "properties"
			if err := walkPropertyOrder(dec, pointer+"/"+escapePointer(key), pointer, childIsProperties, orders); err != nil {
				return err
			}
		}
		if isProperties {
			orders[owner] = keys
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkPropertyOrder(dec, pointer+"/"+strconv.Itoa(i), pointer, false, orders); err != nil {
				return err
			}
		}
	}
	// closing delimiter
	_, err = dec.Token()
	return err
}
