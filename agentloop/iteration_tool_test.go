package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestMoreIterationsExecutor(t *testing.T) ToolExecutor {
	t.Helper()
	reg := NewToolRegistry()
	RegisterIterationTool(reg)
	tool := reg.Get("request_more_iterations")
	require.NotNil(t, tool)
	return tool.Executor
}

func TestRequestMoreIterationsGrantsBudget(t *testing.T) {
	executor := requestMoreIterationsExecutor(t)
	tc := &ToolContext{Iteration: NewIterationController(10, 50, 20, 5)}

	args, _ := json.Marshal(map[string]interface{}{
		"increment":     10,
		"justification": "need more time to finish the migration",
	})
	out, err := executor(args, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "20")
	assert.Equal(t, 20, tc.Iteration.Budget())
}

func TestRequestMoreIterationsWithoutControllerFails(t *testing.T) {
	executor := requestMoreIterationsExecutor(t)
	tc := &ToolContext{}

	args, _ := json.Marshal(map[string]interface{}{"increment": 5, "justification": "short reason here"})
	_, err := executor(args, tc)
	assert.Error(t, err)
}

func TestRequestMoreIterationsRejectsShortJustification(t *testing.T) {
	executor := requestMoreIterationsExecutor(t)
	tc := &ToolContext{Iteration: NewIterationController(10, 50, 20, 20)}

	args, _ := json.Marshal(map[string]interface{}{"increment": 5, "justification": "too short"})
	_, err := executor(args, tc)
	assert.Error(t, err)
}
