package internal

import (
	"fmt"

	"github.com/lychee-technology/apigen"
	"go.uber.org/zap"
)

const (
	memberType          = "type"
	memberAttributes    = "attributes"
	memberRelationships = "relationships"
	memberData          = "data"
	memberIncluded      = "included"
)

// resourceResolver turns a schema describing one JSON:API resource object
// into a registered ResourceType.
type resourceResolver struct {
	query    apigen.SchemaQuery
	registry *namedTypeRegistry
	diags    apigen.DiagnosticSink
	logger   *zap.Logger
}

func (r *resourceResolver) resolve(schema apigen.SchemaRef) (*apigen.ResourceType, error) {
	name := canonicalName(r.query, r.registry, schema, "")

	// The placeholder is registered before relationships are walked so a
	// relationship back to this resource only ever needs the name.
	placeholder := &apigen.ResourceType{Name: name, Schema: schema, Relationships: []apigen.Relationship{}}
	existing, outcome, err := r.registry.register(name, schema, placeholder)
	if err != nil {
		return nil, err
	}
	if outcome == apigen.RegistrationReused {
		return existing.(*apigen.ResourceType), nil
	}

	rt := placeholder
	tag, ok, err := r.discriminant(rt, schema)
	if err != nil {
		return nil, err
	}
	if !ok {
		return rt, nil
	}
	rt.TypeTag = &tag

	if attrs, ok := r.query.DeepProperty(schema, memberAttributes); ok {
		if !r.query.IsObject(attrs) {
			return nil, apigen.NewNotObjectError(memberAttributes, attrs).WithName(name)
		}
		rt.Attributes = attrs
	}

	if rels, ok := r.query.DeepProperty(schema, memberRelationships); ok {
		if !r.query.IsObject(rels) {
			return nil, apigen.NewNotObjectError(memberRelationships, rels).WithName(name)
		}
		relationships, err := r.relationships(name, rels)
		if err != nil {
			return nil, err
		}
		rt.Relationships = relationships
	}

	r.registry.indexTag(rt)
	r.logger.Debug("resolved resource type",
		zap.String("name", name),
		zap.String("type", tag),
		zap.Int("relationships", len(rt.Relationships)),
	)
	return rt, nil
}

// discriminant reads the resource's `type` value. ok is false when the
// resource is returned as an untagged placeholder.
func (r *resourceResolver) discriminant(rt *apigen.ResourceType, schema apigen.SchemaRef) (string, bool, error) {
	typeSchema, found := r.query.DeepProperty(schema, memberType)
	if !found {
		r.diags.Report(apigen.Diagnostic{
			Kind:     apigen.DiagnosticMissingDiscriminant,
			Name:     rt.Name,
			Location: schema.Location(),
			Message:  "cannot find discriminant property \"type\"",
		})
		return "", false, nil
	}

	values := r.query.AllowedValues(typeSchema)
	switch len(values) {
	case 0:
		r.diags.Report(apigen.Diagnostic{
			Kind:     apigen.DiagnosticEmptyDiscriminant,
			Name:     rt.Name,
			Location: typeSchema.Location(),
			Message:  "discriminant property \"type\" has no allowed values",
		})
		return "", false, nil
	case 1:
	default:
		r.diags.Report(apigen.Diagnostic{
			Kind:     apigen.DiagnosticAmbiguousDiscriminant,
			Name:     rt.Name,
			Location: typeSchema.Location(),
			Message:  fmt.Sprintf("expected exactly one discriminant value, found %d, using the first", len(values)),
		})
	}

	tag, ok := values[0].(string)
	if !ok {
		return "", false, apigen.NewDiscriminantNotStringError(typeSchema, values[0]).WithName(rt.Name)
	}
	return tag, true, nil
}

func (r *resourceResolver) relationships(owner string, rels apigen.SchemaRef) ([]apigen.Relationship, error) {
	required := make(map[string]struct{})
	for _, key := range r.query.RequiredKeys(rels) {
		required[key] = struct{}{}
	}

	names := r.query.DeepPropertyNames(rels)
	out := make([]apigen.Relationship, 0, len(names))
	for _, relName := range names {
		relSchema, ok := r.query.DeepProperty(rels, relName)
		if !ok {
			continue
		}
		info, ok, err := r.relationship(owner, relName, relSchema)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		_, info.Required = required[relName]
		out = append(out, apigen.Relationship{Name: relName, RelationshipInfo: info})
	}
	return out, nil
}

// relationship resolves one relationship slot. ok is false when the slot is
// skipped with a diagnostic.
func (r *resourceResolver) relationship(owner, relName string, relSchema apigen.SchemaRef) (apigen.RelationshipInfo, bool, error) {
	data, found := r.query.DeepProperty(relSchema, memberData)
	if !found {
		if r.query.IsComposite(relSchema) {
			r.diags.Report(apigen.Diagnostic{
				Kind:     apigen.DiagnosticUnsupportedRelation,
				Name:     owner,
				Location: relSchema.Location(),
				Message:  fmt.Sprintf("relationship %q is a union without a shared data member, skipping", relName),
			})
			return apigen.RelationshipInfo{}, false, nil
		}
		return apigen.RelationshipInfo{}, false, apigen.NewRelationshipTargetError(
			apigen.ErrCodeTargetMissing, relName, relSchema, "no data member").WithName(owner)
	}

	var (
		targets     []apigen.SchemaRef
		cardinality apigen.Cardinality
	)
	if r.query.IsArray(data) {
		targets = r.query.Items(data)
		for _, item := range targets {
			if r.query.IsArray(item) {
				return apigen.RelationshipInfo{}, false, apigen.NewNestedArrayError(relName, item).WithName(owner)
			}
		}
		cardinality = apigen.CardinalityFor(true, false)
	} else {
		targets = []apigen.SchemaRef{data}
		cardinality = apigen.CardinalityFor(false, r.query.IsNullish(data))
	}

	target, err := r.targetTag(relName, data, targets)
	if err != nil {
		return apigen.RelationshipInfo{}, false, err.WithName(owner)
	}

	return apigen.RelationshipInfo{TargetResourceType: target, Cardinality: cardinality}, true, nil
}

// targetTag determines the discriminant of a relationship target. A single
// plain target contributes its own `type`; unions and multi-element tuples
// must agree on exactly one value across their branches.
func (r *resourceResolver) targetTag(relName string, data apigen.SchemaRef, targets []apigen.SchemaRef) (string, *apigen.GenError) {
	if len(targets) == 1 && !r.query.IsComposite(targets[0]) {
		value, found := r.firstTypeValue(targets[0])
		if !found {
			return "", apigen.NewRelationshipTargetError(apigen.ErrCodeTargetMissing, relName, targets[0],
				"target has no resource type value")
		}
		return r.targetString(relName, targets[0], value)
	}

	var branches []apigen.SchemaRef
	for _, t := range targets {
		if r.query.IsComposite(t) {
			branches = append(branches, r.query.Alternatives(t)...)
			continue
		}
		branches = append(branches, t)
	}

	var distinct []string
	seen := make(map[string]struct{})
	for _, branch := range branches {
		value, found := r.firstTypeValue(branch)
		if !found {
			continue
		}
		tag, err := r.targetString(relName, branch, value)
		if err != nil {
			return "", err
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		distinct = append(distinct, tag)
	}

	switch len(distinct) {
	case 0:
		return "", apigen.NewRelationshipTargetError(apigen.ErrCodeTargetMissing, relName, data,
			"no alternative declares a resource type value")
	case 1:
		return distinct[0], nil
	default:
		return "", apigen.NewRelationshipTargetError(apigen.ErrCodeTargetAmbiguous, relName, data,
			fmt.Sprintf("alternatives disagree on the resource type: %v", distinct)).WithDetail("types", distinct)
	}
}

func (r *resourceResolver) firstTypeValue(schema apigen.SchemaRef) (any, bool) {
	typeSchema, ok := r.query.DeepProperty(schema, memberType)
	if !ok {
		return nil, false
	}
	values := r.query.AllowedValues(typeSchema)
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

func (r *resourceResolver) targetString(relName string, at apigen.SchemaRef, value any) (string, *apigen.GenError) {
	tag, ok := value.(string)
	if !ok {
		return "", apigen.NewRelationshipTargetError(apigen.ErrCodeTargetNotString, relName, at,
			fmt.Sprintf("resource type value must be a string, got %T", value))
	}
	if tag == "" {
		return "", apigen.NewRelationshipTargetError(apigen.ErrCodeTargetMissing, relName, at,
			"resource type value is empty")
	}
	return tag, nil
}
