package apigen

// Engine is one generation run: a registry, a diagnostics channel and the
// documents resolved so far. Resolution calls are serialised.
type Engine interface {
	// ResolveDocument resolves a request or response body schema. fallbackName
	// is used when the schema carries neither a title nor a global name.
	ResolveDocument(schema SchemaRef, fallbackName string) (*DocumentType, error)
	// ResolveResource resolves a single resource object schema.
	ResolveResource(schema SchemaRef) (*ResourceType, error)
	// ResolveAll resolves independent documents. A failing document does not
	// affect the others; the returned error combines every failure.
	ResolveAll(targets []DocumentTarget) ([]*DocumentType, error)

	Registry() TypeRegistry
	Documents() []*DocumentType
	Diagnostics() []Diagnostic
	RunID() string
}
