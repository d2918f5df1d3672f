package internal

import (
	"github.com/lychee-technology/apigen"
	"go.uber.org/zap"
)

// documentResolver resolves JSON:API document schemas (`data` plus optional
// `included`) and delegates every resource object to the resource resolver.
type documentResolver struct {
	query     apigen.SchemaQuery
	registry  *namedTypeRegistry
	resources *resourceResolver
	logger    *zap.Logger
}

// resolve returns the document and whether it was registered by this call.
func (d *documentResolver) resolve(schema apigen.SchemaRef, fallbackName string) (*apigen.DocumentType, bool, error) {
	name := canonicalName(d.query, d.registry, schema, fallbackName)
	placeholder := &apigen.DocumentType{
		Name:                  name,
		Schema:                schema,
		PrimaryResourceTypes:  []string{},
		IncludedResourceTypes: []string{},
	}
	existing, outcome, err := d.registry.register(name, schema, placeholder)
	if err != nil {
		return nil, false, err
	}
	if outcome == apigen.RegistrationReused {
		return existing.(*apigen.DocumentType), false, nil
	}

	doc := placeholder
	data, ok := d.query.DeepProperty(schema, memberData)
	if !ok {
		return doc, true, nil
	}

	primaries := []apigen.SchemaRef{data}
	if d.query.IsArray(data) {
		doc.PrimaryIsArray = true
		primaries = d.query.Items(data)
	}

	for _, primary := range primaries {
		for _, alt := range d.alternatives(primary) {
			rt, err := d.resources.resolve(alt)
			if err != nil {
				return nil, false, err
			}
			doc.PrimaryResourceTypes = append(doc.PrimaryResourceTypes, rt.Name)
		}
	}

	if included, ok := d.query.DeepProperty(schema, memberIncluded); ok {
		if !d.query.IsArray(included) {
			return nil, false, apigen.NewIncludedNotArrayError(included).WithName(name)
		}
		for _, item := range d.query.Items(included) {
			branches := []apigen.SchemaRef{item}
			if !d.query.IsObject(item) || d.query.IsComposite(item) {
				branches = d.nonNull(d.query.Alternatives(item))
			}
			for _, branch := range branches {
				rt, err := d.resources.resolve(branch)
				if err != nil {
					return nil, false, err
				}
				doc.IncludedResourceTypes = append(doc.IncludedResourceTypes, rt.Name)
			}
		}
	}

	d.logger.Debug("resolved document type",
		zap.String("name", name),
		zap.Bool("primaryIsArray", doc.PrimaryIsArray),
		zap.Strings("primary", doc.PrimaryResourceTypes),
		zap.Strings("included", doc.IncludedResourceTypes),
	)
	return doc, true, nil
}

// alternatives expands a union into its branches; any other schema is its own
// sole alternative. Null-only branches describe an absent resource and are dropped.
func (d *documentResolver) alternatives(schema apigen.SchemaRef) []apigen.SchemaRef {
	if !d.query.IsComposite(schema) {
		return []apigen.SchemaRef{schema}
	}
	return d.nonNull(d.query.Alternatives(schema))
}

func (d *documentResolver) nonNull(branches []apigen.SchemaRef) []apigen.SchemaRef {
	out := make([]apigen.SchemaRef, 0, len(branches))
	for _, b := range branches {
		if d.query.IsNull(b) {
			continue
		}
		out = append(out, b)
	}
	return out
}
