package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleReflectArgs struct {
	Path  string `json:"path" jsonschema:"required,description=File path."`
	Count int    `json:"count" jsonschema:"description=Optional count."`
}

func TestReflectToolSchemaProducesObjectSchema(t *testing.T) {
	schema := ReflectToolSchema(sampleReflectArgs{})
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "path")
	assert.Contains(t, props, "count")
}

func TestReflectToolSchemaMarksRequiredFields(t *testing.T) {
	schema := ReflectToolSchema(sampleReflectArgs{})
	required := requiredFields(schema["required"])
	assert.Contains(t, required, "path")
	assert.NotContains(t, required, "count")
}

func TestReflectToolSchemaStripsMetaKeys(t *testing.T) {
	schema := ReflectToolSchema(sampleReflectArgs{})
	_, hasSchema := schema["$schema"]
	_, hasID := schema["$id"]
	assert.False(t, hasSchema)
	assert.False(t, hasID)
}

func TestReflectToolSchemaValidatesArgumentsCorrectly(t *testing.T) {
	schema := ReflectToolSchema(sampleReflectArgs{})
	err := ValidateArguments(schema, []byte(`{"path": "a.go"}`))
	assert.NoError(t, err)

	err = ValidateArguments(schema, []byte(`{"count": 3}`))
	assert.Error(t, err)
}
