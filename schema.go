package apigen

// SchemaRef is an opaque handle to one node of the underlying schema model.
type SchemaRef interface {
	// Identity returns a comparable value that is equal for two handles only
	// when they point at the same schema node.
	Identity() any
	// Location returns a JSON pointer to the node in its source document.
	Location() string
}

// SchemaQuery is the read-only view of a schema model the resolvers need.
// Implementations resolve $ref before handing nodes out.
type SchemaQuery interface {
	// DeepProperty looks a property up on the schema itself and then through
	// its allOf chain, depth first.
	DeepProperty(s SchemaRef, name string) (SchemaRef, bool)
	// DeepPropertyNames lists own properties in declaration order, followed by
	// allOf-composed ones.
	DeepPropertyNames(s SchemaRef) []string
	// IsComposite reports whether the schema is a oneOf/anyOf union.
	IsComposite(s SchemaRef) bool
	// Alternatives returns oneOf branches followed by anyOf branches.
	Alternatives(s SchemaRef) []SchemaRef
	IsArray(s SchemaRef) bool
	IsObject(s SchemaRef) bool
	// Items returns the element schema of an array, or every positional
	// element schema of a tuple-typed array.
	Items(s SchemaRef) []SchemaRef
	// IsNullish reports whether a value matching the schema may be null.
	IsNullish(s SchemaRef) bool
	// IsNull reports whether the schema admits only null.
	IsNull(s SchemaRef) bool
	// AllowedValues returns enum members, or the const value as a single element.
	AllowedValues(s SchemaRef) []any
	// GlobalName returns the component name the schema is registered under.
	GlobalName(s SchemaRef) (string, bool)
	Title(s SchemaRef) string
	// RequiredKeys returns required property names, including those of allOf parts.
	RequiredKeys(s SchemaRef) []string
}

// SameSchema reports whether two handles refer to the same schema node.
func SameSchema(a, b SchemaRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Identity() == b.Identity()
}
