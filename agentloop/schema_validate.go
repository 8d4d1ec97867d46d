package agentloop

import (
	"encoding/json"
	"fmt"
)

// ValidateArguments checks a tool call's arguments against its declared
// JSON-schema-shaped Parameters map. It covers the subset of JSON Schema the
// registry's tool definitions actually use (object/type/required/enum/items),
// which is sufficient to catch the malformed-argument cases the repair pass
// in streaming.go exists to fix — a missing required field, a wrong
// primitive type, or a value outside an enum.
func ValidateArguments(schema map[string]interface{}, arguments json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}

	var value interface{}
	if len(arguments) == 0 {
		value = map[string]interface{}{}
	} else if err := json.Unmarshal(arguments, &value); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	return validateNode(schema, value, "")
}

func validateNode(schema map[string]interface{}, value interface{}, path string) error {
	schemaType, _ := schema["type"].(string)

	switch schemaType {
	case "object", "":
		obj, ok := value.(map[string]interface{})
		if !ok {
			if schemaType == "object" {
				return fmt.Errorf("%s: expected object, got %T", label(path), value)
			}
			return nil
		}
		for _, name := range requiredFields(schema["required"]) {
			if _, present := obj[name]; !present {
				return fmt.Errorf("%s: missing required field %q", label(path), name)
			}
		}
		props, _ := schema["properties"].(map[string]interface{})
		for name, propSchemaRaw := range props {
			fieldValue, present := obj[name]
			if !present {
				continue
			}
			propSchema, ok := propSchemaRaw.(map[string]interface{})
			if !ok {
				continue
			}
			childPath := name
			if path != "" {
				childPath = path + "." + name
			}
			if err := validateNode(propSchema, fieldValue, childPath); err != nil {
				return err
			}
		}
		return nil
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", label(path), value)
		}
		itemSchema, _ := schema["items"].(map[string]interface{})
		if itemSchema == nil {
			return nil
		}
		for i, item := range arr {
			if err := validateNode(itemSchema, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", label(path), value)
		}
		if enum, ok := schema["enum"].([]interface{}); ok && len(enum) > 0 {
			s := value.(string)
			for _, e := range enum {
				if es, ok := e.(string); ok && es == s {
					return nil
				}
			}
			return fmt.Errorf("%s: %q is not one of the allowed values", label(path), s)
		}
		return nil
	case "number", "integer":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("%s: expected number, got %T", label(path), value)
		}
		return nil
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", label(path), value)
		}
		return nil
	default:
		return nil
	}
}

// requiredFields normalizes the "required" keyword, which different call
// sites in this codebase populate as either []string (hand-built literals)
// or []interface{} (schemas decoded from JSON or reflected via
// jsonschema.Reflect).
func requiredFields(raw interface{}) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func label(path string) string {
	if path == "" {
		return "arguments"
	}
	return path
}
