package ptyctl

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LaunchSendKeysKillLifecycle(t *testing.T) {
	mgr := NewManager(2, 200, os.TempDir(), nil)

	info, err := mgr.Launch("cat", "", 40, 10)
	require.NoError(t, err)
	require.NotEmpty(t, info.ID)

	err = mgr.SendKeys(info.ID, "hello\n", false)
	require.NoError(t, err)

	// Give the reader goroutine a moment to apply the echoed bytes.
	time.Sleep(100 * time.Millisecond)

	text, _, _, err := mgr.GetScreen(info.ID, false, false)
	require.NoError(t, err)
	assert.Contains(t, text, "hello")

	listed := mgr.List()
	assert.Len(t, listed, 1)

	err = mgr.Kill(info.ID, "SIGTERM")
	require.NoError(t, err)

	assert.Empty(t, mgr.List())
}

func TestManager_LaunchFailsAtCapacity(t *testing.T) {
	mgr := NewManager(1, 200, os.TempDir(), nil)

	_, err := mgr.Launch("sleep 5", "", 40, 10)
	require.NoError(t, err)

	_, err = mgr.Launch("sleep 5", "", 40, 10)
	require.Error(t, err)
	_, ok := err.(ErrCapacity)
	assert.True(t, ok)
}

func TestManager_UnknownSessionReturnsNotFound(t *testing.T) {
	mgr := NewManager(2, 200, os.TempDir(), nil)
	_, _, _, err := mgr.GetScreen("missing", false, false)
	require.Error(t, err)
	_, ok := err.(ErrNotFound)
	assert.True(t, ok)
}
