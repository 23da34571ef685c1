package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchemaCarriesConstraints(t *testing.T) {
	schemaBytes, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(schemaBytes, &schema))

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", schema["$schema"])
	assert.Equal(t, false, schema["additionalProperties"])

	required, ok := schema["required"].([]interface{})
	require.True(t, ok, "root schema must list required properties")
	assert.Contains(t, required, "app")
	assert.Contains(t, required, "store")

	properties, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, name := range []string{"version", "app", "store", "server", "extensions"} {
		assert.Contains(t, properties, name)
	}

	// The minLength tags on required identity fields must survive
	// reflection, so the generated base is never looser than what the
	// validator embeds.
	assert.Contains(t, string(schemaBytes), `"minLength"`)
}
