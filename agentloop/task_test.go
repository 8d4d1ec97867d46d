package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusTerminalStates(t *testing.T) {
	terminal := []TaskStatus{TaskCompleted, TaskFailed, TaskCancelled}
	for _, st := range terminal {
		assert.True(t, st.terminal(), "%s should be terminal", st)
	}
}

func TestTaskStatusNonTerminalStates(t *testing.T) {
	nonTerminal := []TaskStatus{TaskPending, TaskRunning}
	for _, st := range nonTerminal {
		assert.False(t, st.terminal(), "%s should not be terminal", st)
	}
}
