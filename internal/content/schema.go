package content

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// SchemaError lists every schema violation found in a content document.
type SchemaError struct {
	Errors []FieldError
}

// FieldError is one violation at a document path.
type FieldError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:")
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// Schema returns the JSON Schema content files are checked against.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// ValidateSchema checks a raw YAML content document against the schema.
// It catches unknown keys and wrong shapes before any field validation.
func ValidateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("run schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	se := &SchemaError{}
	for _, re := range result.Errors() {
		se.Errors = append(se.Errors, FieldError{Field: re.Field(), Message: re.Description()})
	}
	return se
}
