package example

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/oasmock/pkg/ai"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Verifier checks generated example text before it is served.
type Verifier interface {
	Verify(doc *oas.Document, format ai.Format, text string, schema any) error
}

// ErrEmptyDocument is returned for XML output without a root element.
var ErrEmptyDocument = errors.New("document has no root element")

// SchemaVerifier requires JSON output to validate against the schema and XML
// output to be well formed. Schemas that do not compile are not enforced.
type SchemaVerifier struct {
	Logger *slog.Logger
}

// NewSchemaVerifier creates a SchemaVerifier.
func NewSchemaVerifier(logger *slog.Logger) *SchemaVerifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SchemaVerifier{Logger: logger}
}

// Verify implements Verifier.
func (v *SchemaVerifier) Verify(doc *oas.Document, format ai.Format, text string, schema any) error {
	if format == ai.FormatXML {
		return verifyXML(text)
	}

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return fmt.Errorf("generated JSON is invalid: %w", err)
	}

	compiled, err := compileSchema(doc, schema)
	if err != nil {
		if v.Logger != nil {
			v.Logger.Debug("skipping schema check of generated example", "error", err)
		}
		return nil
	}

	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("generated JSON does not match schema: %w", err)
	}
	return nil
}

func verifyXML(text string) error {
	d := etree.NewDocument()
	if err := d.ReadFromString(text); err != nil {
		return fmt.Errorf("generated XML is invalid: %w", err)
	}
	if d.Root() == nil {
		return ErrEmptyDocument
	}
	return nil
}

// compileSchema compiles a dereferenced schema with the draft matching the
// document's OpenAPI version.
func compileSchema(doc *oas.Document, schema any) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4
	if doc != nil && doc.Is31() {
		compiler.Draft = jsonschema.Draft2020
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	return compiler.Compile("schema.json")
}
