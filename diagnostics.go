package apigen

import "fmt"

// DiagnosticKind classifies a non-fatal irregularity tolerated during a run.
type DiagnosticKind string

const (
	DiagnosticMissingDiscriminant   DiagnosticKind = "missing-discriminant"
	DiagnosticEmptyDiscriminant     DiagnosticKind = "empty-discriminant"
	DiagnosticAmbiguousDiscriminant DiagnosticKind = "ambiguous-discriminant"
	DiagnosticUnsupportedRelation   DiagnosticKind = "unsupported-relationship"
	DiagnosticDuplicateRender       DiagnosticKind = "duplicate-render"
	DiagnosticDanglingRelationship  DiagnosticKind = "dangling-relationship"
)

// Diagnostic is one recoverable warning. The run continues after it is reported.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Name     string         `json:"name,omitempty"`
	Location string         `json:"location,omitempty"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Location != "" {
		return fmt.Sprintf("%s: %s (%s at %s)", d.Kind, d.Message, d.Name, d.Location)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Message, d.Name)
}

// DiagnosticSink receives diagnostics in the order they are raised.
type DiagnosticSink interface {
	Report(d Diagnostic)
	Diagnostics() []Diagnostic
}
