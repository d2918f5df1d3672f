package apigen

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeSchemaShape   ErrorType = "schema_shape"
	ErrorTypeNameCollision ErrorType = "name_collision"
	ErrorTypeLoad          ErrorType = "load"
	ErrorTypeExport        ErrorType = "export"
	ErrorTypeInternal      ErrorType = "internal"
)

// GenError is a fatal generation-time failure. Location points back at the
// offending node of the API description.
type GenError struct {
	Type     ErrorType      `json:"type"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Location string         `json:"location,omitempty"`
	Name     string         `json:"name,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Cause    error          `json:"-"`
}

func (e *GenError) Error() string {
	switch {
	case e.Name != "" && e.Location != "":
		return fmt.Sprintf("[%s:%s] %s at %s: %s", e.Type, e.Code, e.Name, e.Location, e.Message)
	case e.Location != "":
		return fmt.Sprintf("[%s:%s] at %s: %s", e.Type, e.Code, e.Location, e.Message)
	case e.Name != "":
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Name, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *GenError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to a GenError
func (e *GenError) WithDetail(key string, value any) *GenError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a GenError
func (e *GenError) WithCause(cause error) *GenError {
	e.Cause = cause
	return e
}

// WithName records the canonical name being resolved when the error occurred.
func (e *GenError) WithName(name string) *GenError {
	e.Name = name
	return e
}

const (
	// Resource resolution
	ErrCodeDiscriminantNotString = "DISCRIMINANT_NOT_STRING"
	ErrCodeAttributesNotObject   = "ATTRIBUTES_NOT_OBJECT"
	ErrCodeRelationshipsNotObj   = "RELATIONSHIPS_NOT_OBJECT"
	ErrCodeNestedArray           = "NESTED_ARRAY"
	ErrCodeTargetMissing         = "RELATIONSHIP_TARGET_MISSING"
	ErrCodeTargetAmbiguous       = "RELATIONSHIP_TARGET_AMBIGUOUS"
	ErrCodeTargetNotString       = "RELATIONSHIP_TARGET_NOT_STRING"

	// Document resolution
	ErrCodeIncludedNotArray = "INCLUDED_NOT_ARRAY"

	// Registry
	ErrCodeNameCollision = "NAME_COLLISION"

	// Tooling
	ErrCodeSchemaLoadFailed = "SCHEMA_LOAD_FAILED"
	ErrCodeExportFailed     = "EXPORT_FAILED"
)

func newSchemaShapeError(code string, s SchemaRef, message string) *GenError {
	e := &GenError{
		Type:    ErrorTypeSchemaShape,
		Code:    code,
		Message: message,
	}
	if s != nil {
		e.Location = s.Location()
	}
	return e
}

// NewDiscriminantNotStringError reports a `type` discriminant whose value is not a string literal.
func NewDiscriminantNotStringError(s SchemaRef, value any) *GenError {
	return newSchemaShapeError(ErrCodeDiscriminantNotString, s,
		fmt.Sprintf("discriminant must be a string literal, got %T", value)).WithDetail("value", value)
}

// NewNotObjectError reports an `attributes` or `relationships` member that is not object-typed.
func NewNotObjectError(member string, s SchemaRef) *GenError {
	code := ErrCodeAttributesNotObject
	if member == "relationships" {
		code = ErrCodeRelationshipsNotObj
	}
	return newSchemaShapeError(code, s, fmt.Sprintf("%q must be an object schema", member))
}

// NewNestedArrayError reports a relationship `data` array whose items are arrays.
func NewNestedArrayError(relationship string, s SchemaRef) *GenError {
	return newSchemaShapeError(ErrCodeNestedArray, s,
		fmt.Sprintf("relationship %q: data array items must not be arrays", relationship))
}

// NewRelationshipTargetError reports a relationship whose target resource type cannot be determined.
func NewRelationshipTargetError(code, relationship string, s SchemaRef, detail string) *GenError {
	return newSchemaShapeError(code, s, fmt.Sprintf("relationship %q: %s", relationship, detail))
}

// NewIncludedNotArrayError reports an `included` member that is not array-typed.
func NewIncludedNotArrayError(s SchemaRef) *GenError {
	return newSchemaShapeError(ErrCodeIncludedNotArray, s, `"included" must be an array schema`)
}

// NewNameCollisionError reports two distinct schemas competing for one canonical name.
func NewNameCollisionError(name string, existing, incoming SchemaRef) *GenError {
	e := &GenError{
		Type:    ErrorTypeNameCollision,
		Code:    ErrCodeNameCollision,
		Message: "name is already registered for a different schema",
		Name:    name,
	}
	if incoming != nil {
		e.Location = incoming.Location()
	}
	if existing != nil {
		e.WithDetail("existing", existing.Location())
	}
	return e
}

// NewSchemaLoadError wraps a failure to read or parse a source document.
func NewSchemaLoadError(source string, cause error) *GenError {
	return &GenError{
		Type:     ErrorTypeLoad,
		Code:     ErrCodeSchemaLoadFailed,
		Message:  "failed to load schema document",
		Location: source,
		Cause:    cause,
	}
}

// NewExportError wraps a failure to write a manifest.
func NewExportError(target string, cause error) *GenError {
	return &GenError{
		Type:     ErrorTypeExport,
		Code:     ErrCodeExportFailed,
		Message:  "failed to export manifest",
		Location: target,
		Cause:    cause,
	}
}

// IsNameCollision reports whether err is, or wraps, a name collision.
func IsNameCollision(err error) bool {
	var ge *GenError
	return errors.As(err, &ge) && ge.Type == ErrorTypeNameCollision
}

// IsSchemaShapeError reports whether err is, or wraps, a schema shape failure.
func IsSchemaShapeError(err error) bool {
	var ge *GenError
	return errors.As(err, &ge) && ge.Type == ErrorTypeSchemaShape
}

// ErrorCode extracts the GenError code from err, or "" if err is not a GenError.
func ErrorCode(err error) string {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
