package internal

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/lychee-technology/apigen"
)

const typeScriptPrelude = `// Code generated by apigen. DO NOT EDIT.

export interface ResourceIdentifier<T extends string> {
  type: T;
  id: string;
}
`

var typeScriptTemplates = template.Must(template.New("ts").Funcs(template.FuncMap{
	"quote": strconv.Quote,
	"prop":  tsPropertyName,
}).Parse(`
{{- define "resource"}}
export interface {{.Name}} {
  type: {{if .Tag}}{{quote .Tag}}{{else}}string{{end}};
  id: string;
{{- if .HasAttributes}}
  attributes: Record<string, unknown>;
{{- end}}
{{- if .Relationships}}
  relationships: {
{{- range .Relationships}}
    {{prop .Name}}{{if not .Required}}?{{end}}: { data: {{.Data}} };
{{- end}}
  };
{{- end}}
}
{{end}}
{{- define "document"}}
export interface {{.Name}} {
{{- if .Primary}}
  data: {{.Primary}};
{{- end}}
{{- if .Included}}
  included?: {{.Included}};
{{- end}}
}
{{end}}`))

var tsIdentRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func tsPropertyName(name string) string {
	if tsIdentRegex.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

type tsRelationship struct {
	Name     string
	Required bool
	Data     string
}

type tsResource struct {
	Name          string
	Tag           string
	HasAttributes bool
	Relationships []tsRelationship
}

type tsDocument struct {
	Name     string
	Primary  string
	Included string
}

// TypeScriptRenderer emits TypeScript declarations for resolved types. Each
// named type is written once; types are reached through the cycle-safe walker.
type TypeScriptRenderer struct {
	diags   apigen.DiagnosticSink
	walker  *apigen.Walker
	emitted map[string]struct{}
	out     bytes.Buffer
}

// NewTypeScriptRenderer creates a renderer over registry. diags may be nil.
func NewTypeScriptRenderer(registry apigen.TypeRegistry, diags apigen.DiagnosticSink) *TypeScriptRenderer {
	r := &TypeScriptRenderer{
		diags:   diags,
		walker:  apigen.NewWalker(registry, diags),
		emitted: make(map[string]struct{}),
	}
	r.out.WriteString(typeScriptPrelude)
	return r
}

// Render emits the named types and everything they reference.
func (r *TypeScriptRenderer) Render(names ...string) error {
	for _, name := range names {
		if r.walker.Done(name) {
			r.reportDuplicate(name)
			continue
		}
		if err := r.walker.Walk(name, r.emit); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns everything rendered so far.
func (r *TypeScriptRenderer) Bytes() []byte {
	return r.out.Bytes()
}

func (r *TypeScriptRenderer) emit(t apigen.NamedType) error {
	name := t.TypeName()
	if _, ok := r.emitted[name]; ok {
		r.reportDuplicate(name)
		return nil
	}
	r.emitted[name] = struct{}{}

	switch v := t.(type) {
	case *apigen.ResourceType:
		return r.execute("resource", r.resourceView(v))
	case *apigen.DocumentType:
		return r.execute("document", documentView(v))
	default:
		return fmt.Errorf("render: unsupported descriptor %T for %q", t, name)
	}
}

func (r *TypeScriptRenderer) execute(tpl string, data any) error {
	if err := typeScriptTemplates.ExecuteTemplate(&r.out, tpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tpl, err)
	}
	return nil
}

func (r *TypeScriptRenderer) resourceView(rt *apigen.ResourceType) tsResource {
	view := tsResource{Name: rt.Name, HasAttributes: rt.Attributes != nil}
	if tag, ok := rt.Tag(); ok {
		view.Tag = tag
	}
	for _, rel := range rt.Relationships {
		ident := "ResourceIdentifier<" + strconv.Quote(rel.TargetResourceType) + ">"
		data := ident
		switch rel.Cardinality {
		case apigen.CardinalityMany:
			data = ident + "[]"
		case apigen.CardinalityZeroOrOne:
			data = ident + " | null"
		}
		view.Relationships = append(view.Relationships, tsRelationship{Name: rel.Name, Required: rel.Required, Data: data})
	}
	return view
}

func documentView(doc *apigen.DocumentType) tsDocument {
	view := tsDocument{Name: doc.Name}
	if len(doc.PrimaryResourceTypes) > 0 {
		union := tsUnion(doc.PrimaryResourceTypes)
		if doc.PrimaryIsArray {
			view.Primary = tsArray(union, len(uniqueNames(doc.PrimaryResourceTypes)))
		} else {
			view.Primary = union
		}
	}
	if len(doc.IncludedResourceTypes) > 0 {
		view.Included = tsArray(tsUnion(doc.IncludedResourceTypes), len(uniqueNames(doc.IncludedResourceTypes)))
	}
	return view
}

func tsUnion(names []string) string {
	return strings.Join(uniqueNames(names), " | ")
}

func tsArray(union string, members int) string {
	if members > 1 {
		return "(" + union + ")[]"
	}
	return union + "[]"
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (r *TypeScriptRenderer) reportDuplicate(name string) {
	if r.diags == nil {
		return
	}
	r.diags.Report(apigen.Diagnostic{
		Kind:    apigen.DiagnosticDuplicateRender,
		Name:    name,
		Message: fmt.Sprintf("type %q was already rendered, skipping", name),
	})
}
