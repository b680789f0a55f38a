package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalidDocument is returned when a config file does not match the schema
var ErrInvalidDocument = errors.New("config does not match schema")

// Schema returns the JSON schema config files are validated against
func Schema() string {
	return schemaJSON
}

// ValidateDocument checks a raw JSON config document against the schema. Every
// violation is reported, one per line.
func ValidateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("%w:\n%s", ErrInvalidDocument, strings.Join(violations, "\n"))
}
