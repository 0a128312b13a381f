// Package bandspec validates band specification documents against a JSON
// Schema before any remote call is issued. The schema is built from the
// band-spec types and compiled once per validator.
package bandspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	invopop "github.com/invopop/jsonschema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cohortware/fedsum/pkg/types"
)

// symbolNamePattern matches valid remote symbol and variable names. Kept in
// sync with the expression builder's validation.
const symbolNamePattern = `^[A-Za-z][A-Za-z0-9._]*$`

var comparisonOperators = []any{">", ">=", "<", "<="}

// Document builds the band-spec JSON Schema (Draft 2020-12).
func Document() *invopop.Schema {
	band := &invopop.Schema{
		Type:                 "object",
		Properties:           invopop.NewProperties(),
		Required:             []string{"lower", "upper"},
		AdditionalProperties: invopop.FalseSchema,
	}
	band.Properties.Set("lower", &invopop.Schema{Type: "number"})
	band.Properties.Set("upper", &invopop.Schema{Type: "number"})

	operators := &invopop.Schema{
		Type:                 "object",
		Properties:           invopop.NewProperties(),
		Required:             []string{"lower", "upper"},
		AdditionalProperties: invopop.FalseSchema,
	}
	operators.Properties.Set("lower", &invopop.Schema{Type: "string", Enum: comparisonOperators})
	operators.Properties.Set("upper", &invopop.Schema{Type: "string", Enum: comparisonOperators})

	minBands := uint64(1)
	doc := &invopop.Schema{
		Type:                 "object",
		Title:                "Band specification",
		Properties:           invopop.NewProperties(),
		Required:             []string{"variable", "bands"},
		AdditionalProperties: invopop.FalseSchema,
	}
	doc.Properties.Set("variable", &invopop.Schema{Type: "string", Pattern: symbolNamePattern})
	doc.Properties.Set("bands", &invopop.Schema{Type: "array", Items: band, MinItems: &minBands})
	doc.Properties.Set("operators", operators)

	return doc
}

// Validator validates band-spec JSON documents.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the band-spec schema.
func NewValidator() (*Validator, error) {
	data, err := json.Marshal(Document())
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var schemaValue any
	if err := json.Unmarshal(data, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("bandspec.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("bandspec.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Result is the outcome of validating one document.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks a band-spec JSON document against the schema.
func (v *Validator) Validate(data []byte) *Result {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &Result{Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())}}
	}

	if err := v.schema.Validate(value); err != nil {
		return &Result{Errors: extractValidationErrors(err)}
	}
	return &Result{Valid: true}
}

// Parse validates a band-spec JSON document and decodes it.
func (v *Validator) Parse(data []byte) (*types.BandSpec, error) {
	res := v.Validate(data)
	if !res.Valid {
		return nil, fmt.Errorf("invalid band spec: %s", strings.Join(res.Errors, "; "))
	}

	var spec types.BandSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decoding band spec: %w", err)
	}
	return &spec, nil
}

// printer renders validation errors in English.
var printer = message.NewPrinter(language.English)

// extractValidationErrors flattens a validation error tree into readable
// per-path messages.
func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	errorsByPath := make(map[string][]string)
	var order []string
	collectErrors(validationErr, errorsByPath, &order)

	var result []string
	for _, path := range order {
		seen := make(map[string]bool)
		for _, msg := range errorsByPath[path] {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	return result
}

// collectErrors walks to leaf errors, keyed and ordered by instance path.
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string, order *[]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			if _, ok := errorsByPath[instancePath]; !ok {
				*order = append(*order, instancePath)
			}
			errorsByPath[instancePath] = append(errorsByPath[instancePath], msg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath, order)
	}
}
