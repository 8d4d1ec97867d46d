package agentloop

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conversationToolExecutor(t *testing.T, name string) ToolExecutor {
	t.Helper()
	reg := NewToolRegistry()
	RegisterConversationTools(reg)
	tool := reg.Get(name)
	require.NotNil(t, tool)
	return tool.Executor
}

func TestSwitchModelToolChangesColour(t *testing.T) {
	s := newTestSession(t)
	tc := &ToolContext{Conversation: &ConversationHandle{session: s}}

	args, _ := json.Marshal(map[string]interface{}{"colour": "grn"})
	out, err := conversationToolExecutor(t, "switch_model")(args, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "grn")
	assert.Equal(t, ColourGrn, s.CurrentColour())
}

func TestSwitchModelToolRejectsUnknownColour(t *testing.T) {
	s := newTestSession(t)
	tc := &ToolContext{Conversation: &ConversationHandle{session: s}}

	args, _ := json.Marshal(map[string]interface{}{"colour": "purple"})
	_, err := conversationToolExecutor(t, "switch_model")(args, tc)
	assert.Error(t, err)
}

func TestSwitchModelToolWithoutConversationHandleFails(t *testing.T) {
	args, _ := json.Marshal(map[string]interface{}{"colour": "blu"})
	_, err := conversationToolExecutor(t, "switch_model")(args, &ToolContext{})
	assert.Error(t, err)
}

func TestSaveAndLoadConversationToolsRoundTrip(t *testing.T) {
	s := newTestSession(t)
	s.SwitchColour(ColourRed)
	s.ReplaceHistory([]Turn{NewUserTurn("hello there")})
	tc := &ToolContext{Conversation: &ConversationHandle{session: s}}

	path := filepath.Join(t.TempDir(), "conv.json")
	saveArgs, _ := json.Marshal(map[string]interface{}{"path": path})
	_, err := conversationToolExecutor(t, "save_conversation")(saveArgs, tc)
	require.NoError(t, err)

	restored := newTestSession(t)
	restoredTC := &ToolContext{Conversation: &ConversationHandle{session: restored}}
	loadArgs, _ := json.Marshal(map[string]interface{}{"path": path})
	_, err = conversationToolExecutor(t, "load_conversation")(loadArgs, restoredTC)
	require.NoError(t, err)

	assert.Equal(t, ColourRed, restored.CurrentColour())
	require.Len(t, restored.History(), 1)
	assert.Equal(t, "hello there", restored.History()[0].TextContent())
}

func TestSaveConversationToolRequiresPath(t *testing.T) {
	s := newTestSession(t)
	tc := &ToolContext{Conversation: &ConversationHandle{session: s}}

	args, _ := json.Marshal(map[string]interface{}{"path": ""})
	_, err := conversationToolExecutor(t, "save_conversation")(args, tc)
	assert.Error(t, err)
}
