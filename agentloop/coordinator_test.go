package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlannerJSONExtractsEmbeddedObject(t *testing.T) {
	text := `Here is my plan:
{"strategy": "decompose", "subtasks": [{"description": "write tests", "assigned_agent": "coder"}]}
Let me know if that works.`

	out, ok := parsePlannerJSON(text)
	require.True(t, ok)
	assert.Equal(t, "decompose", out.Strategy)
	require.Len(t, out.Subtasks, 1)
	assert.Equal(t, "coder", out.Subtasks[0].AssignedAgent)
}

func TestParsePlannerJSONRejectsNonJSONText(t *testing.T) {
	_, ok := parsePlannerJSON("I don't think this needs a plan.")
	assert.False(t, ok)
}

func TestParsePlannerJSONRejectsMalformedObject(t *testing.T) {
	_, ok := parsePlannerJSON(`{"strategy": "decompose", "subtasks": [}`)
	assert.False(t, ok)
}

func TestCoordinatorFallbackPlanUsesDefaultAgent(t *testing.T) {
	c := &Coordinator{}
	plan := c.fallbackPlan("do the thing")
	assert.Equal(t, "single_task", plan.Strategy)
	require.Len(t, plan.Subtasks, 1)
	assert.Equal(t, DefaultAgentName, plan.Subtasks[0].AssignedAgent)
	assert.Equal(t, "do the thing", plan.Subtasks[0].Description)
}

func TestCoordinatorPlanFallsBackWithoutPlannerConfig(t *testing.T) {
	c := NewCoordinator(map[string]*AgentConfig{}, nil, CoordinatorDeps{}, ColourBlu)
	plan, err := c.plan(nil, "root", "investigate the outage")
	require.NoError(t, err)
	assert.Equal(t, "single_task", plan.Strategy)
	assert.Equal(t, DefaultAgentName, plan.Subtasks[0].AssignedAgent)
}
