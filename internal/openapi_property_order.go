package internal

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// recordPropertyOrder walks the raw YAML (or JSON) tree alongside the loaded
// document and remembers the order properties were declared in. kin-openapi
// keeps properties in a map, so the order is otherwise lost.
func (q *OpenAPIQuery) recordPropertyOrder(root *yaml.Node) {
	doc := documentNode(root)
	if doc == nil {
		return
	}

	if components := mappingValue(doc, "components"); components != nil && q.doc.Components != nil {
		forEachPair(mappingValue(components, "schemas"), func(name string, node *yaml.Node) {
			if ref := q.doc.Components.Schemas[name]; ref != nil {
				q.collectSchemaOrder(node, ref.Value, 0)
			}
		})
		forEachPair(mappingValue(components, "requestBodies"), func(name string, node *yaml.Node) {
			if ref := q.doc.Components.RequestBodies[name]; ref != nil && ref.Value != nil {
				q.collectContentOrder(mappingValue(node, "content"), ref.Value.Content)
			}
		})
		forEachPair(mappingValue(components, "responses"), func(name string, node *yaml.Node) {
			if ref := q.doc.Components.Responses[name]; ref != nil && ref.Value != nil {
				q.collectContentOrder(mappingValue(node, "content"), ref.Value.Content)
			}
		})
	}

	if q.doc.Paths == nil {
		return
	}
	forEachPair(mappingValue(doc, "paths"), func(path string, itemNode *yaml.Node) {
		item := q.doc.Paths.Value(path)
		if item == nil {
			return
		}
		ops := item.Operations()
		forEachPair(itemNode, func(method string, opNode *yaml.Node) {
			op := ops[strings.ToUpper(method)]
			if op == nil {
				return
			}
			if op.RequestBody != nil && op.RequestBody.Value != nil {
				body := mappingValue(opNode, "requestBody")
				q.collectContentOrder(mappingValue(body, "content"), op.RequestBody.Value.Content)
			}
			if op.Responses == nil {
				return
			}
			forEachPair(mappingValue(opNode, "responses"), func(status string, respNode *yaml.Node) {
				if resp := op.Responses.Value(status); resp != nil && resp.Value != nil {
					q.collectContentOrder(mappingValue(respNode, "content"), resp.Value.Content)
				}
			})
		})
	})
}

func (q *OpenAPIQuery) collectContentOrder(node *yaml.Node, content openapi3.Content) {
	forEachPair(node, func(mt string, mediaNode *yaml.Node) {
		if media := content[mt]; media != nil && media.Schema != nil {
			q.collectSchemaOrder(mappingValue(mediaNode, "schema"), media.Schema.Value, 0)
		}
	})
}

func (q *OpenAPIQuery) collectSchemaOrder(node *yaml.Node, schema *openapi3.Schema, depth int) {
	node = resolveAlias(node)
	if node == nil || schema == nil || node.Kind != yaml.MappingNode || depth > maxRefHops {
		return
	}
	// A $ref node carries no properties of its own; the target is walked
	// from where it is declared.
	if mappingValue(node, "$ref") != nil {
		return
	}

	if props := mappingValue(node, "properties"); props != nil {
		var keys []string
		forEachPair(props, func(name string, propNode *yaml.Node) {
			keys = append(keys, name)
			if ref := schema.Properties[name]; ref != nil {
				q.collectSchemaOrder(propNode, ref.Value, depth+1)
			}
		})
		if _, seen := q.propertyOrder[schema]; !seen {
			q.propertyOrder[schema] = keys
		}
	}

	if schema.Items != nil {
		q.collectSchemaOrder(mappingValue(node, "items"), schema.Items.Value, depth+1)
	}
	for keyword, refs := range map[string]openapi3.SchemaRefs{
		"allOf": schema.AllOf,
		"oneOf": schema.OneOf,
		"anyOf": schema.AnyOf,
	} {
		seq := resolveAlias(mappingValue(node, keyword))
		if seq == nil || seq.Kind != yaml.SequenceNode {
			continue
		}
		for i, elem := range seq.Content {
			if i < len(refs) && refs[i] != nil {
				q.collectSchemaOrder(elem, refs[i].Value, depth+1)
			}
		}
	}
}

func documentNode(root *yaml.Node) *yaml.Node {
	if root == nil {
		return nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		return resolveAlias(root.Content[0])
	}
	return resolveAlias(root)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mappingValue returns the value stored under key in a mapping node.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolveAlias(n.Content[i+1])
		}
	}
	return nil
}

// forEachPair visits the entries of a mapping node in document order.
func forEachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, resolveAlias(n.Content[i+1]))
	}
}
