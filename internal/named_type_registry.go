package internal

import (
	"strconv"
	"sync"

	"github.com/lychee-technology/apigen"
)

type registryEntry struct {
	schema     apigen.SchemaRef
	descriptor apigen.NamedType
}

// namedTypeRegistry maps canonical names to resolved descriptors for one run.
// Names are only ever added; the journal lets the engine discard the entries
// of a top-level resolution that failed half way.
type namedTypeRegistry struct {
	mu            sync.RWMutex
	entries       map[string]*registryEntry
	order         []string
	byTag         map[string][]*apigen.ResourceType
	synthetic     map[any]string
	unknownPrefix string
	unknownSeq    int
	journal       []string
	journaling    bool
}

var _ apigen.TypeRegistry = (*namedTypeRegistry)(nil)

func newNamedTypeRegistry(unknownPrefix string) *namedTypeRegistry {
	if unknownPrefix == "" {
		unknownPrefix = "Unknown"
	}
	return &namedTypeRegistry{
		entries:       make(map[string]*registryEntry),
		byTag:         make(map[string][]*apigen.ResourceType),
		synthetic:     make(map[any]string),
		unknownPrefix: unknownPrefix,
	}
}

// register stores placeholder under name unless the name is taken. A name
// held by the same schema identity is reused; any other holder is a collision.
func (r *namedTypeRegistry) register(name string, schema apigen.SchemaRef, placeholder apigen.NamedType) (apigen.NamedType, apigen.RegistrationOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		if !apigen.SameSchema(existing.schema, schema) || existing.descriptor.Kind() != placeholder.Kind() {
			return nil, 0, apigen.NewNameCollisionError(name, existing.schema, schema)
		}
		return existing.descriptor, apigen.RegistrationReused, nil
	}

	r.entries[name] = &registryEntry{schema: schema, descriptor: placeholder}
	r.order = append(r.order, name)
	if r.journaling {
		r.journal = append(r.journal, name)
	}
	return placeholder, apigen.RegistrationFresh, nil
}

// indexTag makes a populated resource reachable through its discriminant.
func (r *namedTypeRegistry) indexTag(rt *apigen.ResourceType) {
	tag, ok := rt.Tag()
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTag[tag] = append(r.byTag[tag], rt)
}

// syntheticName hands out Unknown<N> names. The same schema identity always
// gets the same name within a run.
func (r *namedTypeRegistry) syntheticName(schema apigen.SchemaRef) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schema != nil {
		if name, ok := r.synthetic[schema.Identity()]; ok {
			return name
		}
	}
	r.unknownSeq++
	name := r.unknownPrefix + strconv.Itoa(r.unknownSeq)
	if schema != nil {
		r.synthetic[schema.Identity()] = name
	}
	return name
}

func (r *namedTypeRegistry) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journaling = true
	r.journal = r.journal[:0]
}

func (r *namedTypeRegistry) commit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journaling = false
	r.journal = r.journal[:0]
}

// rollback drops every name registered since begin.
func (r *namedTypeRegistry) rollback() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := append([]string(nil), r.journal...)
	if len(dropped) == 0 {
		r.journaling = false
		return nil
	}

	drop := make(map[string]struct{}, len(dropped))
	for _, name := range dropped {
		drop[name] = struct{}{}
		entry := r.entries[name]
		delete(r.entries, name)
		rt, ok := entry.descriptor.(*apigen.ResourceType)
		if !ok {
			continue
		}
		if tag, ok := rt.Tag(); ok {
			r.byTag[tag] = removeResource(r.byTag[tag], rt)
			if len(r.byTag[tag]) == 0 {
				delete(r.byTag, tag)
			}
		}
	}

	kept := r.order[:0]
	for _, name := range r.order {
		if _, ok := drop[name]; !ok {
			kept = append(kept, name)
		}
	}
	r.order = kept
	r.journaling = false
	r.journal = r.journal[:0]
	return dropped
}

func removeResource(list []*apigen.ResourceType, target *apigen.ResourceType) []*apigen.ResourceType {
	out := list[:0]
	for _, rt := range list {
		if rt != target {
			out = append(out, rt)
		}
	}
	return out
}

func (r *namedTypeRegistry) Lookup(name string) (apigen.NamedType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.descriptor, true
}

func (r *namedTypeRegistry) Resource(name string) (*apigen.ResourceType, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	rt, ok := t.(*apigen.ResourceType)
	return rt, ok
}

func (r *namedTypeRegistry) ResourcesByTag(tag string) []*apigen.ResourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*apigen.ResourceType(nil), r.byTag[tag]...)
}

func (r *namedTypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *namedTypeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
