package apigen

import (
	"encoding/json"
	"fmt"
)

// Cardinality describes how many target resources a relationship slot holds.
type Cardinality string

const (
	CardinalityZeroOrOne Cardinality = "zero_or_one"
	CardinalityOne       Cardinality = "one"
	CardinalityMany      Cardinality = "many"
)

// CardinalityFor derives the cardinality of a relationship from the shape of
// its `data` schema.
func CardinalityFor(isArray, nullish bool) Cardinality {
	switch {
	case isArray:
		return CardinalityMany
	case nullish:
		return CardinalityZeroOrOne
	default:
		return CardinalityOne
	}
}

// RelationshipInfo describes one named relationship slot on a resource.
// The target is held by discriminant name only.
type RelationshipInfo struct {
	TargetResourceType string      `json:"targetResourceType"`
	Cardinality        Cardinality `json:"cardinality"`
	Required           bool        `json:"required"`
}

// Relationship is a RelationshipInfo together with the key it is declared under.
type Relationship struct {
	Name string `json:"name"`
	RelationshipInfo
}

// TypeKind distinguishes the descriptors stored in the type registry.
type TypeKind string

const (
	TypeKindResource TypeKind = "resource"
	TypeKindDocument TypeKind = "document"
)

// NamedType is a resolved descriptor registered under a canonical name.
type NamedType interface {
	TypeName() string
	Kind() TypeKind
	// References returns the names this descriptor points at. Resource
	// relationships yield discriminant tags, documents yield canonical names.
	References() []string
}

// ResourceType is the resolved shape of one JSON:API resource object.
type ResourceType struct {
	Name          string         `json:"name"`
	TypeTag       *string        `json:"typeTag,omitempty"`
	Attributes    SchemaRef      `json:"-"`
	Relationships []Relationship `json:"relationships"`
	Schema        SchemaRef      `json:"-"`
}

func (r *ResourceType) TypeName() string { return r.Name }

func (r *ResourceType) Kind() TypeKind { return TypeKindResource }

// References returns relationship targets in declaration order, without duplicates.
func (r *ResourceType) References() []string {
	seen := make(map[string]struct{}, len(r.Relationships))
	refs := make([]string, 0, len(r.Relationships))
	for _, rel := range r.Relationships {
		if _, ok := seen[rel.TargetResourceType]; ok {
			continue
		}
		seen[rel.TargetResourceType] = struct{}{}
		refs = append(refs, rel.TargetResourceType)
	}
	return refs
}

// Tag returns the JSON:API discriminant value, if the resource has one.
func (r *ResourceType) Tag() (string, bool) {
	if r.TypeTag == nil {
		return "", false
	}
	return *r.TypeTag, true
}

// Relationship looks up a relationship slot by its declared name.
func (r *ResourceType) Relationship(name string) (RelationshipInfo, bool) {
	for _, rel := range r.Relationships {
		if rel.Name == name {
			return rel.RelationshipInfo, true
		}
	}
	return RelationshipInfo{}, false
}

// MarshalJSON adds the attributes location so manifests can point back at the source.
func (r *ResourceType) MarshalJSON() ([]byte, error) {
	type alias ResourceType
	out := struct {
		*alias
		Attributes string `json:"attributes,omitempty"`
		Source     string `json:"source,omitempty"`
	}{alias: (*alias)(r)}
	if r.Attributes != nil {
		out.Attributes = r.Attributes.Location()
	}
	if r.Schema != nil {
		out.Source = r.Schema.Location()
	}
	return json.Marshal(out)
}

func (r *ResourceType) String() string {
	tag := "<none>"
	if r.TypeTag != nil {
		tag = *r.TypeTag
	}
	return fmt.Sprintf("%s(type=%s, relationships=%d)", r.Name, tag, len(r.Relationships))
}

// DocumentType is the resolved shape of a JSON:API request or response body.
type DocumentType struct {
	Name                  string    `json:"name"`
	PrimaryIsArray        bool      `json:"primaryIsArray"`
	PrimaryResourceTypes  []string  `json:"primaryResourceTypes"`
	IncludedResourceTypes []string  `json:"includedResourceTypes"`
	Schema                SchemaRef `json:"-"`
}

func (d *DocumentType) TypeName() string { return d.Name }

func (d *DocumentType) Kind() TypeKind { return TypeKindDocument }

// References returns primary then included resource names, without duplicates.
func (d *DocumentType) References() []string {
	seen := make(map[string]struct{})
	refs := make([]string, 0, len(d.PrimaryResourceTypes)+len(d.IncludedResourceTypes))
	for _, list := range [][]string{d.PrimaryResourceTypes, d.IncludedResourceTypes} {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			refs = append(refs, name)
		}
	}
	return refs
}

// RegistrationOutcome reports what the registry did with a name.
type RegistrationOutcome int

const (
	// RegistrationFresh means the name was unused; the caller must populate the descriptor.
	RegistrationFresh RegistrationOutcome = iota
	// RegistrationReused means the name already maps to the same schema identity.
	RegistrationReused
)

func (o RegistrationOutcome) String() string {
	switch o {
	case RegistrationFresh:
		return "fresh"
	case RegistrationReused:
		return "reused"
	default:
		return fmt.Sprintf("RegistrationOutcome(%d)", int(o))
	}
}

// DocumentTarget names a schema that should be resolved as a JSON:API document.
type DocumentTarget struct {
	Name   string    `json:"name"`
	Schema SchemaRef `json:"-"`
}
