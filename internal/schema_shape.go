package internal

import "sort"

// schemaShape is the structural classification the facades use internally so
// resolver code never branches on a raw `type` keyword.
type schemaShape int

const (
	shapeLeaf schemaShape = iota
	// shapeComposite is a oneOf/anyOf union of alternatives.
	shapeComposite
	// shapeConjunction is an allOf chain whose parts merge their properties.
	shapeConjunction
)

func (s schemaShape) String() string {
	switch s {
	case shapeComposite:
		return "composite"
	case shapeConjunction:
		return "conjunction"
	default:
		return "leaf"
	}
}

func classifyShape(oneOf, anyOf, allOf int) schemaShape {
	switch {
	case oneOf+anyOf > 0:
		return shapeComposite
	case allOf > 0:
		return shapeConjunction
	default:
		return shapeLeaf
	}
}

// declaredOrder lists the keys of props in the order given by order, then any
// keys order does not mention, sorted.
func declaredOrder[V any](order []string, props map[string]V) []string {
	names := make([]string, 0, len(props))
	listed := make(map[string]struct{}, len(order))
	for _, name := range order {
		if _, ok := props[name]; !ok {
			continue
		}
		if _, dup := listed[name]; dup {
			continue
		}
		listed[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == len(props) {
		return names
	}

	var rest []string
	for name := range props {
		if _, ok := listed[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
