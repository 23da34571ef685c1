// Package schema validates configuration against the embedded JSON
// Schema. The embedded file is maintained by hand, curated from the
// base schema tools/config-schema-generator reflects out of the config
// types into schema/definitions/.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grovetools/extdev/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed extdev.embedded.schema.json
var embeddedSchemaData []byte

// Validator validates configuration against the embedded JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a validator from the embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extdev.json", strings.NewReader(string(embeddedSchemaData))); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to add embedded schema resource")
	}

	schema, err := compiler.Compile("extdev.json")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to compile embedded schema")
	}

	return &Validator{schema: schema}, nil
}

// Validate checks any JSON-marshalable value against the schema. The
// value is round-tripped through JSON first so validation sees plain
// objects, not Go structs.
func (v *Validator) Validate(configData interface{}) error {
	jsonData, err := json.Marshal(configData)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "failed to marshal config for validation")
	}

	var dataToValidate interface{}
	if err := json.Unmarshal(jsonData, &dataToValidate); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "failed to unmarshal config for validation")
	}

	if err := v.schema.Validate(dataToValidate); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return errors.New(errors.ErrCodeConfigValidation,
				"schema validation failed:\n"+strings.Join(messages, "\n"))
		}
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}

	return nil
}

func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
