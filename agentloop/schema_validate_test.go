package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func objSchema(required []interface{}, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func TestValidateArgumentsNilSchemaAlwaysPasses(t *testing.T) {
	assert.NoError(t, ValidateArguments(nil, json.RawMessage(`{"anything": true}`)))
}

func TestValidateArgumentsMissingRequiredField(t *testing.T) {
	schema := objSchema([]interface{}{"path"}, map[string]interface{}{
		"path": map[string]interface{}{"type": "string"},
	})
	err := ValidateArguments(schema, json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "missing required field")
}

func TestValidateArgumentsRequiredAsStringSliceAlsoWorks(t *testing.T) {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"path": map[string]interface{}{"type": "string"}},
		"required":   []string{"path"},
	}
	err := ValidateArguments(schema, json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "missing required field")
}

func TestValidateArgumentsWrongType(t *testing.T) {
	schema := objSchema(nil, map[string]interface{}{
		"count": map[string]interface{}{"type": "integer"},
	})
	err := ValidateArguments(schema, json.RawMessage(`{"count": "not a number"}`))
	assert.ErrorContains(t, err, "expected number")
}

func TestValidateArgumentsEnumRejectsUnknownValue(t *testing.T) {
	schema := objSchema([]interface{}{"colour"}, map[string]interface{}{
		"colour": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"blu", "grn", "red"},
		},
	})
	assert.NoError(t, ValidateArguments(schema, json.RawMessage(`{"colour": "grn"}`)))
	err := ValidateArguments(schema, json.RawMessage(`{"colour": "purple"}`))
	assert.ErrorContains(t, err, "not one of the allowed values")
}

func TestValidateArgumentsMalformedJSON(t *testing.T) {
	schema := objSchema(nil, nil)
	err := ValidateArguments(schema, json.RawMessage(`{not json`))
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestValidateArgumentsNestedArrayItems(t *testing.T) {
	schema := objSchema([]interface{}{"names"}, map[string]interface{}{
		"names": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	})
	assert.NoError(t, ValidateArguments(schema, json.RawMessage(`{"names": ["a", "b"]}`)))
	err := ValidateArguments(schema, json.RawMessage(`{"names": [1, 2]}`))
	assert.ErrorContains(t, err, "expected string")
}
