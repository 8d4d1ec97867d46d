package agentloop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencoder/agentcore/unifiedllm"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	env := NewLocalExecutionEnvironment(t.TempDir())
	profile := NewAnthropicProfile("claude-opus-4-6")
	return NewSession(profile, env, nil)
}

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	s := newTestSession(t)
	s.SwitchColour(ColourBlu)
	s.ReplaceHistory([]Turn{
		NewUserTurn("hello"),
		NewAssistantTurn("hi there", nil, "", unifiedllm.Usage{InputTokens: 5, OutputTokens: 7, TotalTokens: 12}, "r1"),
	})
	s.SetCumulativeUsage(unifiedllm.Usage{InputTokens: 5, OutputTokens: 7, TotalTokens: 12})

	path := filepath.Join(t.TempDir(), "conversation.json")
	require.NoError(t, s.Save(path))

	restored := newTestSession(t)
	require.NoError(t, restored.Load(path))

	assert.Equal(t, ColourBlu, restored.CurrentColour())
	assert.Equal(t, 12, restored.CumulativeUsage().TotalTokens)
	require.Len(t, restored.History(), 2)
	assert.Equal(t, "hello", restored.History()[0].TextContent())
}

func TestSessionLoadRejectsUnknownSchemaVersion(t *testing.T) {
	s := newTestSession(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 999, "history": []}`), 0o644))

	err := s.Load(path)
	assert.ErrorContains(t, err, "unsupported conversation schema version")
}

func TestSessionLoadMissingFile(t *testing.T) {
	s := newTestSession(t)
	err := s.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
