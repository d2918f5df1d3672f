package apigen

// TypeRegistry is the read side of the named-type registry of one run.
type TypeRegistry interface {
	// Lookup returns the descriptor registered under a canonical name.
	Lookup(name string) (NamedType, bool)
	// Resource returns the resource type registered under a canonical name.
	Resource(name string) (*ResourceType, bool)
	// ResourcesByTag returns every resource type whose discriminant equals tag,
	// in registration order.
	ResourcesByTag(tag string) []*ResourceType
	// Names returns every registered name in registration order.
	Names() []string
	Len() int
}
