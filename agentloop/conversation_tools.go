package agentloop

import (
	"encoding/json"
	"fmt"
)

// conversationPathArgs backs both save_conversation and load_conversation,
// whose schemas are reflected; switch_model keeps its hand-built schema
// since its enum constraint reads more clearly as a literal.
type conversationPathArgs struct {
	Path string `json:"path" jsonschema:"required,description=Conversation state file path."`
}

// RegisterConversationTools registers switch_model, save_conversation, and
// load_conversation, the three tools through which an agent manipulates
// its own conversation state per §4.6.
func RegisterConversationTools(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "switch_model",
			Description: "Switch the active model colour (blu, grn, or red) for subsequent turns in this conversation.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"colour": map[string]interface{}{
						"type":        "string",
						"description": "One of blu, grn, red.",
						"enum":        []string{"blu", "grn", "red"},
					},
				},
				"required": []string{"colour"},
			},
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			raw, _ := GetStringArg(args, "colour")
			colour := Colour(raw)
			if !colour.Valid() {
				return "", fmt.Errorf("unknown colour %q; must be one of blu, grn, red", raw)
			}
			if tc == nil || tc.Conversation == nil {
				return "", fmt.Errorf("no conversation handle is configured for this session")
			}
			tc.Conversation.SwitchColour(colour)
			return fmt.Sprintf("Switched active model colour to %s.", colour), nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "save_conversation",
			Description: "Persist the full conversation history, active colour, and usage counters to a file.",
			Parameters:  ReflectToolSchema(conversationPathArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			path, ok := GetStringArg(args, "path")
			if !ok || path == "" {
				return "", fmt.Errorf("path is required")
			}
			if tc == nil || tc.Conversation == nil {
				return "", fmt.Errorf("no conversation handle is configured for this session")
			}
			if err := tc.Conversation.Save(path); err != nil {
				return "", err
			}
			return fmt.Sprintf("Conversation saved to %s", path), nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "load_conversation",
			Description: "Restore a previously saved conversation, replacing the current history, colour, and usage counters.",
			Parameters:  ReflectToolSchema(conversationPathArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			path, ok := GetStringArg(args, "path")
			if !ok || path == "" {
				return "", fmt.Errorf("path is required")
			}
			if tc == nil || tc.Conversation == nil {
				return "", fmt.Errorf("no conversation handle is configured for this session")
			}
			if err := tc.Conversation.Load(path); err != nil {
				return "", err
			}
			return fmt.Sprintf("Conversation restored from %s", path), nil
		},
	})
}
