package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibilityNewTaskComputesDepthFromParent(t *testing.T) {
	v := NewVisibility(nil)

	root := v.NewTask("", "analyzer", "root task")
	require.Equal(t, 0, root.Depth)
	require.Equal(t, TaskPending, root.Status)

	child := v.NewTask(root.ID, "coder", "child task")
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, root.ID, child.ParentID)
}

func TestVisibilityTransitionIsNoOpOnceTerminal(t *testing.T) {
	v := NewVisibility(nil)
	task := v.NewTask("", "analyzer", "do a thing")

	v.Transition(task.ID, TaskCompleted, "done")
	v.Transition(task.ID, TaskFailed, "should not apply")

	got := v.Get(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, TaskCompleted, got.Status)
	assert.Equal(t, "done", got.Result)
}

func TestVisibilityTransitionUnknownTaskIsSilentlyIgnored(t *testing.T) {
	v := NewVisibility(nil)
	assert.NotPanics(t, func() {
		v.Transition("does-not-exist", TaskCompleted, "result")
	})
	assert.Nil(t, v.Get("does-not-exist"))
}

func TestVisibilityTreeReturnsSnapshotsNotLiveRefs(t *testing.T) {
	v := NewVisibility(nil)
	task := v.NewTask("", "analyzer", "first")

	tree := v.Tree()
	require.Len(t, tree, 1)

	v.Transition(task.ID, TaskCompleted, "done")
	assert.Equal(t, TaskPending, tree[0].Status, "snapshot taken before transition must not mutate")
}

func TestVisibilityEmitIsNilSafeWithoutEmitter(t *testing.T) {
	v := NewVisibility(nil)
	assert.NotPanics(t, func() {
		task := v.NewTask("", "analyzer", "no emitter attached")
		v.SetPhase(task.ID, PhaseTaskExecution)
		v.Transition(task.ID, TaskCompleted, "ok")
	})
}

func TestVisibilityEmitsTaskUpdateEvents(t *testing.T) {
	emitter := NewEventEmitter("sess-1", 16)
	v := NewVisibility(emitter)

	task := v.NewTask("", "analyzer", "emits events")
	v.Transition(task.ID, TaskCompleted, "done")

	var sawPlanning, sawCompleted bool
	for i := 0; i < 2; i++ {
		select {
		case evt := <-emitter.Events():
			require.Equal(t, EventTaskUpdate, evt.Kind)
			switch evt.Data["phase"] {
			case string(PhasePlanning):
				sawPlanning = true
			case string(PhaseCompleted):
				sawCompleted = true
			}
		default:
		}
	}
	assert.True(t, sawPlanning)
	assert.True(t, sawCompleted)
}
