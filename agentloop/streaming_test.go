package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencoder/agentcore/unifiedllm"
)

func TestRewriteXMLToolCallsNoBlockReturnsUnchanged(t *testing.T) {
	text := "just some plain assistant text"
	cleaned, calls, rewrote := RewriteXMLToolCalls(text)
	assert.False(t, rewrote)
	assert.Nil(t, calls)
	assert.Equal(t, text, cleaned)
}

func TestRewriteXMLToolCallsExtractsStructuredCall(t *testing.T) {
	text := `Let me check that file.

<tool_call name="read_file">{"path": "a.go"}</tool_call>

Done.`
	cleaned, calls, rewrote := RewriteXMLToolCalls(text)
	require.True(t, rewrote)
	require.Len(t, calls, 1)
	assert.Equal(t, "read_file", calls[0].Name)
	assert.JSONEq(t, `{"path": "a.go"}`, string(calls[0].Arguments))
	assert.NotContains(t, cleaned, "<tool_call")
	assert.Contains(t, cleaned, "Let me check that file.")
	assert.Contains(t, cleaned, "Done.")
}

func TestRewriteXMLToolCallsMultipleBlocksGetDistinctIDs(t *testing.T) {
	text := `<tool_call name="a">{}</tool_call><tool_call name="b">{}</tool_call>`
	_, calls, rewrote := RewriteXMLToolCalls(text)
	require.True(t, rewrote)
	require.Len(t, calls, 2)
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
}

func TestToolCallAssemblerCoalescesIndexedDeltas(t *testing.T) {
	a := NewToolCallAssembler()
	a.Process(unifiedllm.StreamEvent{
		Type: unifiedllm.ToolCallStart,
		Raw:  map[string]interface{}{"tool_call_id": "call_1", "name": "write_file", "index": float64(0)},
	})
	a.Process(unifiedllm.StreamEvent{
		Type: unifiedllm.ToolCallDelta,
		Raw:  map[string]interface{}{"tool_call_id": "call_1", "arguments_delta": `{"path":`},
	})
	a.Process(unifiedllm.StreamEvent{
		Type: unifiedllm.ToolCallDelta,
		Raw:  map[string]interface{}{"tool_call_id": "call_1", "arguments_delta": `"a.go"}`},
	})

	calls := a.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "write_file", calls[0].Name)
	assert.JSONEq(t, `{"path":"a.go"}`, string(calls[0].Arguments))
}

func TestToolCallAssemblerPreservesFirstSeenOrder(t *testing.T) {
	a := NewToolCallAssembler()
	a.Process(unifiedllm.StreamEvent{Type: unifiedllm.ToolCallEnd, ToolCall: &unifiedllm.ToolCall{ID: "x", Name: "a", Arguments: json.RawMessage(`{}`)}})
	a.Process(unifiedllm.StreamEvent{Type: unifiedllm.ToolCallEnd, ToolCall: &unifiedllm.ToolCall{ID: "y", Name: "b", Arguments: json.RawMessage(`{}`)}})

	calls := a.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "x", calls[0].ID)
	assert.Equal(t, "y", calls[1].ID)
}

func TestTruncateHistoryDropsOldestTurnsOnly(t *testing.T) {
	history := []Turn{
		NewSystemTurn("sys"),
		NewUserTurn("first"),
		NewAssistantTurn("reply", nil, "", unifiedllm.Usage{}, "r1"),
		NewUserTurn("second"),
		NewAssistantTurn("reply2", nil, "", unifiedllm.Usage{}, "r2"),
		NewUserTurn("third"),
		NewAssistantTurn("reply3", nil, "", unifiedllm.Usage{}, "r3"),
	}
	out := TruncateHistory(history, 3)
	assert.Len(t, out, len(history)-3)
	assert.Equal(t, "second", out[0].TextContent())
}

func TestTruncateHistoryNeverSplitsAToolResultFromItsCall(t *testing.T) {
	toolCall := unifiedllm.ToolCall{ID: "c1", Name: "shell", Arguments: json.RawMessage(`{}`)}
	history := []Turn{
		NewUserTurn("go run the tests"),
		NewAssistantTurn("running tests", []unifiedllm.ToolCall{toolCall}, "", unifiedllm.Usage{}, "r1"),
		NewToolResultsTurn([]unifiedllm.ToolResult{{ToolCallID: "c1", Content: "ok"}}),
		NewUserTurn("thanks"),
	}
	// Cutting at index 2 would separate the assistant's tool call from its
	// result turn; protectReferencedToolResults must push the cut back so
	// any surviving tool-results turn keeps its preceding assistant turn.
	out := TruncateHistory(history, 2)
	for i, turn := range out {
		if turn.Kind == TurnToolResults {
			require.Greater(t, i, 0)
			assert.Equal(t, TurnAssistant, out[i-1].Kind)
		}
	}
}

func TestSummarizeHistoryNoOpUnderKeepRecentThreshold(t *testing.T) {
	history := []Turn{NewUserTurn("hi"), NewAssistantTurn("hello", nil, "", unifiedllm.Usage{}, "r1")}
	out, err := SummarizeHistory(nil, nil, "", history, 0.5)
	assert.NoError(t, err)
	assert.Equal(t, history, out)
}
