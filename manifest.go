package apigen

import (
	"encoding/json"
	"sort"
)

// Manifest is the exported form of one generation run.
type Manifest struct {
	RunID       string          `json:"runId"`
	Source      string          `json:"source"`
	Resources   []*ResourceType `json:"resources"`
	Documents   []*DocumentType `json:"documents"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
}

// NewManifest snapshots an engine. Resources are sorted by name, documents
// keep resolution order.
func NewManifest(engine Engine, source string) *Manifest {
	registry := engine.Registry()
	names := registry.Names()
	sort.Strings(names)

	resources := make([]*ResourceType, 0, len(names))
	for _, name := range names {
		if rt, ok := registry.Resource(name); ok {
			resources = append(resources, rt)
		}
	}

	diags := engine.Diagnostics()
	if diags == nil {
		diags = []Diagnostic{}
	}
	docs := engine.Documents()
	if docs == nil {
		docs = []*DocumentType{}
	}

	return &Manifest{
		RunID:       engine.RunID(),
		Source:      source,
		Resources:   resources,
		Documents:   docs,
		Diagnostics: diags,
	}
}

// Encode serialises the manifest as JSON.
func (m *Manifest) Encode(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(m, "", "  ")
	}
	return json.Marshal(m)
}
