package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencoder/agentcore/unifiedllm"
)

func assistantTurnWithCalls(names ...string) Turn {
	calls := make([]unifiedllm.ToolCall, 0, len(names))
	for _, n := range names {
		calls = append(calls, unifiedllm.ToolCall{ID: n, Name: n, Arguments: json.RawMessage(`{}`)})
	}
	return NewAssistantTurn("", calls, "", unifiedllm.Usage{}, "")
}

func TestDetectLoopFindsRepeatingSingleCall(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls("list_dir"),
		assistantTurnWithCalls("list_dir"),
		assistantTurnWithCalls("list_dir"),
		assistantTurnWithCalls("list_dir"),
	}
	assert.True(t, DetectLoop(history, 4))
}

func TestDetectLoopFindsRepeatingPairPattern(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls("read_file"),
		assistantTurnWithCalls("write_file"),
		assistantTurnWithCalls("read_file"),
		assistantTurnWithCalls("write_file"),
	}
	assert.True(t, DetectLoop(history, 4))
}

func TestDetectLoopFalseWhenCallsVary(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls("read_file"),
		assistantTurnWithCalls("grep"),
		assistantTurnWithCalls("edit_file"),
		assistantTurnWithCalls("shell"),
	}
	assert.False(t, DetectLoop(history, 4))
}

func TestDetectLoopFalseWithInsufficientHistory(t *testing.T) {
	history := []Turn{assistantTurnWithCalls("list_dir")}
	assert.False(t, DetectLoop(history, 4))
}

func TestDetectLoopIgnoresExemptPollingTools(t *testing.T) {
	history := []Turn{
		assistantTurnWithCalls("pty_get_screen"),
		assistantTurnWithCalls("pty_get_screen"),
		assistantTurnWithCalls("pty_get_screen"),
		assistantTurnWithCalls("pty_get_screen"),
	}
	assert.False(t, DetectLoop(history, 4))
}
