// Package monitor validates incoming gateway requests against a JSON
// schema before they reach the orchestrator, so malformed payloads are
// rejected with a precise reason instead of a vendor error.
package monitor

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/create_payment_request.schema.json
var createPaymentSchema []byte

// ContractMonitor validates request bodies against a compiled JSON schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewCreatePaymentMonitor compiles the built-in create-payment request
// schema.
func NewCreatePaymentMonitor() (*ContractMonitor, error) {
	return newFromBytes(createPaymentSchema)
}

// NewFromFile compiles a schema from a file path, absolute or relative to
// the working directory.
func NewFromFile(schemaPath string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaPath))
	if err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", schemaPath, err)
	}
	return &ContractMonitor{schema: schema}, nil
}

func newFromBytes(raw []byte) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// Validate checks the request body against the schema. It returns true
// when valid, or false plus the individual violation descriptions.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(requestBody))
	if err != nil {
		return false, nil, fmt.Errorf("validating request: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatErrors joins violation descriptions into a single message.
func FormatErrors(violations []string) string {
	if len(violations) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(violations, "; ")
}
