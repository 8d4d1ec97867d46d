package agentloop

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// toolReflector is shared across every reflected tool schema so repeated
// Reflect calls see the same $ref/definitions behavior.
var toolReflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	RequiredFromJSONSchemaTags: false,
}

// ReflectToolSchema generates a ToolDefinition.Parameters map from a typed
// argument struct, for the tool families this spec adds (PTY, iteration,
// conversation control). The teacher's original core tools keep their
// hand-built map[string]interface{} schemas unchanged; only new tool
// families go through reflection, so both idioms are visible side by side.
func ReflectToolSchema(args interface{}) map[string]interface{} {
	schema := toolReflector.Reflect(args)
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{"type": "object"}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	// jsonschema.Reflect emits top-level $schema/$id keys that add noise to
	// a tool-call parameter description without affecting validation.
	delete(out, "$schema")
	delete(out, "$id")
	return out
}
