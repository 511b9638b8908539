package report

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the canonical JSON schema every written report conforms to.
// Consumers can validate third-party or archived reports against it.
//
//go:embed report-schema.json
var Schema []byte

// ValidateDocument checks a serialized report against the embedded schema.
// A nil error with nil results means the document is valid; a non-empty
// result slice describes each violation.
func ValidateDocument(data []byte) ([]gojsonschema.ResultError, error) {
	schemaLoader := gojsonschema.NewBytesLoader(Schema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate report: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	return result.Errors(), nil
}
