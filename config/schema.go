package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects the Config struct into a base JSON Schema.
// tools/config-schema-generator writes it to
// schema/definitions/base.schema.json; the embedded schema the
// validator uses is curated from that base by hand, so regenerating
// never silently weakens the checked-in constraints.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		// Validation runs on the JSON form of the config, so property
		// names come from the json tags, not the toml ones.
		FieldNameTag: "json",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "Extension Dev Server Configuration"
	schema.Description = "Schema for extdev.toml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
