package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencoder/agentcore/agentloop/ptyctl"
)

func ptyToolExecutor(t *testing.T, name string) ToolExecutor {
	t.Helper()
	reg := NewToolRegistry()
	RegisterPTYTools(reg)
	tool := reg.Get(name)
	require.NotNil(t, tool)
	return tool.Executor
}

func TestPTYToolsRequirePTYManagerConfigured(t *testing.T) {
	tc := &ToolContext{}
	names := []string{
		"pty_launch", "pty_send_keys", "pty_get_screen", "pty_get_cursor",
		"pty_resize", "pty_set_scrollback", "pty_start_capture", "pty_stop_capture",
		"pty_list", "pty_kill", "pty_request_user_input",
	}
	for _, name := range names {
		_, err := ptyToolExecutor(t, name)([]byte(`{"id":"x"}`), tc)
		assert.Errorf(t, err, "expected %s to fail without a PTY manager", name)
	}
}

func TestPTYLaunchToolRequiresCommand(t *testing.T) {
	mgr := ptyctl.NewManager(0, 0, t.TempDir(), nil)
	tc := &ToolContext{PTY: mgr}

	_, err := ptyToolExecutor(t, "pty_launch")([]byte(`{"command":""}`), tc)
	assert.Error(t, err)
}

func TestPTYLaunchAndListRoundTrip(t *testing.T) {
	mgr := ptyctl.NewManager(0, 0, t.TempDir(), nil)
	tc := &ToolContext{PTY: mgr}

	args, _ := json.Marshal(map[string]interface{}{"command": "cat"})
	out, err := ptyToolExecutor(t, "pty_launch")(args, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "Launched session")

	listOut, err := ptyToolExecutor(t, "pty_list")([]byte(`{}`), tc)
	require.NoError(t, err)
	assert.Contains(t, listOut, "cat")

	defer mgr.Shutdown(0)
}

func TestPTYKillToolDefaultsToSIGTERM(t *testing.T) {
	mgr := ptyctl.NewManager(0, 0, t.TempDir(), nil)
	tc := &ToolContext{PTY: mgr}
	defer mgr.Shutdown(0)

	launchArgs, _ := json.Marshal(map[string]interface{}{"command": "cat"})
	_, err := ptyToolExecutor(t, "pty_launch")(launchArgs, tc)
	require.NoError(t, err)

	sessions := mgr.List()
	require.Len(t, sessions, 1)

	killArgs, _ := json.Marshal(map[string]interface{}{"id": sessions[0].ID})
	out, err := ptyToolExecutor(t, "pty_kill")(killArgs, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "SIGTERM")
}
