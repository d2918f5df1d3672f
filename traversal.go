package apigen

import "fmt"

type visitState int

const (
	stateUnvisited visitState = iota
	stateInProgress
	stateDone
)

// Walker visits named types reachable from a root exactly once, even when
// resources reference each other cyclically. A name is marked in progress
// before its references are descended into; a reference to a name that is
// in progress or done is not descended again.
//
// Visit is called in post-order, so a type's dependencies are visited before
// the type itself except where a cycle forces otherwise.
type Walker struct {
	registry TypeRegistry
	diags    DiagnosticSink
	state    map[string]visitState
	dangling map[string]struct{}
}

// NewWalker creates a walker over registry. diags may be nil.
func NewWalker(registry TypeRegistry, diags DiagnosticSink) *Walker {
	return &Walker{
		registry: registry,
		diags:    diags,
		state:    make(map[string]visitState),
		dangling: make(map[string]struct{}),
	}
}

// Done reports whether name has been fully visited.
func (w *Walker) Done(name string) bool {
	return w.state[name] == stateDone
}

// Walk visits name and everything reachable from it.
func (w *Walker) Walk(name string, visit func(NamedType) error) error {
	t, ok := w.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("walk: %q is not registered", name)
	}
	return w.walk(t, visit)
}

func (w *Walker) walk(t NamedType, visit func(NamedType) error) error {
	name := t.TypeName()
	if w.state[name] != stateUnvisited {
		return nil
	}
	w.state[name] = stateInProgress

	for _, dep := range w.dependencies(t) {
		if err := w.walk(dep, visit); err != nil {
			return err
		}
	}

	w.state[name] = stateDone
	return visit(t)
}

// dependencies resolves a descriptor's references to registered types.
// Relationship targets are discriminant tags and may match several resources.
func (w *Walker) dependencies(t NamedType) []NamedType {
	var deps []NamedType
	switch t.Kind() {
	case TypeKindResource:
		for _, tag := range t.References() {
			matches := w.registry.ResourcesByTag(tag)
			if len(matches) == 0 {
				w.reportDangling(t, tag)
				continue
			}
			for _, rt := range matches {
				deps = append(deps, rt)
			}
		}
	default:
		for _, ref := range t.References() {
			if dep, ok := w.registry.Lookup(ref); ok {
				deps = append(deps, dep)
			}
		}
	}
	return deps
}

func (w *Walker) reportDangling(owner NamedType, tag string) {
	if w.diags == nil {
		return
	}
	key := owner.TypeName() + "->" + tag
	if _, ok := w.dangling[key]; ok {
		return
	}
	w.dangling[key] = struct{}{}
	w.diags.Report(Diagnostic{
		Kind:    DiagnosticDanglingRelationship,
		Name:    owner.TypeName(),
		Message: fmt.Sprintf("relationship target %q matches no resolved resource type", tag),
	})
}
