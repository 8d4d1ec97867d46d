package agentloop

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// requestMoreIterationsArgs is reflected into request_more_iterations'
// parameter schema via jsonschema.Reflect.
type requestMoreIterationsArgs struct {
	Increment     int    `json:"increment" jsonschema:"required,description=Additional iterations requested."`
	Justification string `json:"justification" jsonschema:"required,description=Concrete reason more iterations are needed."`
}

// RegisterIterationTool registers request_more_iterations, the §4.4 escape
// hatch an agent uses to extend its own turn budget when it is near the
// limit and has a concrete justification for continuing.
func RegisterIterationTool(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "request_more_iterations",
			Description: "Request additional tool-call iterations for the current task. Requires a concrete justification for why more are needed.",
			Parameters:  ReflectToolSchema(requestMoreIterationsArgs{}),
		},
		Executor: func(arguments json.RawMessage, tc *ToolContext) (string, error) {
			args, err := ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			increment, _ := GetIntArg(args, "increment")
			justification, _ := GetStringArg(args, "justification")

			if tc == nil || tc.Iteration == nil {
				return "", fmt.Errorf("no iteration budget is configured for this session")
			}

			newBudget, err := tc.Iteration.Grant(increment, justification)
			if err != nil {
				return "", err
			}
			if tc.Logger != nil {
				tc.Logger.Info("iteration budget extended",
					zap.String("task_id", tc.TaskID),
					zap.Int("new_budget", newBudget),
					zap.String("justification", justification),
				)
			}
			return fmt.Sprintf("Budget extended to %d iterations.", newBudget), nil
		},
	})
}
