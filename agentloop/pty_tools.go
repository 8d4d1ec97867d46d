package agentloop

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencoder/agentcore/agentloop/policy"
)

type ptyLaunchArgs struct {
	Command string `json:"command" jsonschema:"required,description=Command to run."`
	Cwd     string `json:"cwd,omitempty" jsonschema:"description=Working directory."`
	Cols    int    `json:"cols,omitempty" jsonschema:"description=Terminal width. Default 80."`
	Rows    int    `json:"rows,omitempty" jsonschema:"description=Terminal height. Default 24."`
}

type ptySendKeysArgs struct {
	ID                string `json:"id" jsonschema:"required,description=Session ID."`
	Keys              string `json:"keys" jsonschema:"required,description=Keys to send. May include ^X and [NAME] notation."`
	InterpretSpecials bool   `json:"interpret_specials,omitempty" jsonschema:"description=Translate ^X and [NAME] notation to control bytes. Default true."`
}

type ptyGetScreenArgs struct {
	ID            string `json:"id" jsonschema:"required,description=Session ID."`
	IncludeColors bool   `json:"include_colors,omitempty" jsonschema:"description=Include ANSI color escapes. Default false."`
	IncludeCursor bool   `json:"include_cursor,omitempty" jsonschema:"description=Append the cursor position. Default false."`
}

type ptySessionIDArgs struct {
	ID string `json:"id" jsonschema:"required,description=Session ID."`
}

type ptyResizeArgs struct {
	ID   string `json:"id" jsonschema:"required,description=Session ID."`
	Cols int    `json:"cols" jsonschema:"required,description=New width."`
	Rows int    `json:"rows" jsonschema:"required,description=New height."`
}

type ptySetScrollbackArgs struct {
	ID    string `json:"id" jsonschema:"required,description=Session ID."`
	Lines int    `json:"lines" jsonschema:"required,description=Scrollback line count."`
}

type ptyKillArgs struct {
	ID     string `json:"id" jsonschema:"required,description=Session ID."`
	Signal string `json:"signal,omitempty" jsonschema:"description=Signal name. Default SIGTERM."`
}

type ptyRequestUserInputArgs struct {
	ID       string `json:"id" jsonschema:"required,description=Session ID."`
	Message  string `json:"message" jsonschema:"required,description=Message shown to the user explaining why input is needed."`
	TimeoutS int    `json:"timeout_s,omitempty" jsonschema:"description=Seconds to wait before giving up. Default 300."`
}

// RegisterPTYTools wires the eleven interactive-terminal tools onto reg.
// Every tool reaches its session table through ToolContext.PTY; launch and
// kill are side-effecting and go through the policy manager first, per
// §4.3's action-type list.
func RegisterPTYTools(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_launch",
			Description: "Launch an interactive terminal session running the given command.",
			Parameters:  ReflectToolSchema(ptyLaunchArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			command, ok := GetStringArg(args, "command")
			if !ok || command == "" {
				return "", fmt.Errorf("command is required")
			}
			cwd, _ := GetStringArg(args, "cwd")
			cols, _ := GetIntArg(args, "cols")
			if cols <= 0 {
				cols = 80
			}
			rows, _ := GetIntArg(args, "rows")
			if rows <= 0 {
				rows = 24
			}
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := checkPolicy(tc, policy.ActionPTYLaunch, command, ""); err != nil {
				return "", err
			}
			info, err := tc.PTY.Launch(command, cwd, cols, rows)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Launched session %s running %q", info.ID, command), nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_send_keys",
			Description: "Send keystrokes to a running terminal session.",
			Parameters:  ReflectToolSchema(ptySendKeysArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			keys, _ := GetStringArg(args, "keys")
			interpret, ok := GetBoolArg(args, "interpret_specials")
			if !ok {
				interpret = true
			}
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := tc.PTY.SendKeys(id, keys, interpret); err != nil {
				return "", err
			}
			return "Keys sent.", nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_get_screen",
			Description: "Render the current screen contents of a terminal session.",
			Parameters:  ReflectToolSchema(ptyGetScreenArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			includeColors, _ := GetBoolArg(args, "include_colors")
			includeCursor, _ := GetBoolArg(args, "include_cursor")
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			text, x, y, err := tc.PTY.GetScreen(id, includeColors, includeCursor)
			if err != nil {
				return "", err
			}
			if includeCursor {
				text += fmt.Sprintf("\n[cursor: %d,%d]", x, y)
			}
			return text, nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_get_cursor",
			Description: "Return the cursor position of a terminal session.",
			Parameters:  ReflectToolSchema(ptySessionIDArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			x, y, err := tc.PTY.GetCursor(id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d,%d", x, y), nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_resize",
			Description: "Resize a terminal session.",
			Parameters:  ReflectToolSchema(ptyResizeArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			cols, _ := GetIntArg(args, "cols")
			rows, _ := GetIntArg(args, "rows")
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := tc.PTY.Resize(id, cols, rows); err != nil {
				return "", err
			}
			return "Resized.", nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_set_scrollback",
			Description: "Set the scrollback buffer size of a terminal session.",
			Parameters:  ReflectToolSchema(ptySetScrollbackArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			lines, _ := GetIntArg(args, "lines")
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := tc.PTY.SetScrollback(id, lines); err != nil {
				return "", err
			}
			return "Scrollback updated.", nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_start_capture",
			Description: "Begin recording a terminal session's output to a capture file.",
			Parameters:  ReflectToolSchema(ptySessionIDArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := tc.PTY.StartCapture(id); err != nil {
				return "", err
			}
			return "Capture started.", nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_stop_capture",
			Description: "Stop recording a terminal session and return the capture file path.",
			Parameters:  ReflectToolSchema(ptySessionIDArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			path, err := tc.PTY.StopCapture(id)
			if err != nil {
				return "", err
			}
			return path, nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_list",
			Description: "List all active terminal sessions.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			sessions := tc.PTY.List()
			out, err := json.Marshal(sessions)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_kill",
			Description: "Terminate a terminal session, optionally with a specific signal.",
			Parameters:  ReflectToolSchema(ptyKillArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			signal, _ := GetStringArg(args, "signal")
			if signal == "" {
				signal = "SIGTERM"
			}
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := checkPolicy(tc, policy.ActionPTYKill, id, signal); err != nil {
				return "", err
			}
			if err := tc.PTY.Kill(id, signal); err != nil {
				return "", err
			}
			return fmt.Sprintf("Sent %s to session %s", signal, id), nil
		},
	})

	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "pty_request_user_input",
			Description: "Hand the terminal session over to the user for direct interaction, up to a timeout.",
			Parameters:  ReflectToolSchema(ptyRequestUserInputArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			id, _ := GetStringArg(args, "id")
			message, _ := GetStringArg(args, "message")
			timeoutS, ok := GetIntArg(args, "timeout_s")
			if !ok || timeoutS <= 0 {
				timeoutS = 300
			}
			if err := requirePTY(tc); err != nil {
				return "", err
			}
			if err := tc.PTY.RequestUserInput(id, message, time.Duration(timeoutS)*time.Second); err != nil {
				return "", err
			}
			return "User input complete; control returned to the agent.", nil
		},
	})
}

func requirePTY(tc *ToolContext) error {
	if tc == nil || tc.PTY == nil {
		return fmt.Errorf("no PTY manager is configured for this session")
	}
	return nil
}
