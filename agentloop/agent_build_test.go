package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeProfileToAgentNilConfigReturnsBaseUnchanged(t *testing.T) {
	base := NewAnthropicProfile("claude-opus-4-6")
	scoped := ScopeProfileToAgent(base, nil)
	assert.Same(t, ProviderProfile(base), scoped)
}

func TestScopeProfileToAgentEmptyToolsReturnsBaseUnchanged(t *testing.T) {
	base := NewAnthropicProfile("claude-opus-4-6")
	scoped := ScopeProfileToAgent(base, &AgentConfig{Name: "coder"})
	assert.Same(t, ProviderProfile(base), scoped)
}

func TestScopeProfileToAgentFiltersToNamedTools(t *testing.T) {
	base := NewAnthropicProfile("claude-opus-4-6")
	full := base.ToolRegistry().Definitions()
	require.NotEmpty(t, full)
	firstName := full[0].Name

	scoped := ScopeProfileToAgent(base, &AgentConfig{Name: "coder", Tools: []string{firstName}})
	defs := scoped.Tools()
	require.Len(t, defs, 1)
	assert.Equal(t, firstName, defs[0].Name)

	// The base profile's own registry must be untouched by scoping.
	assert.Equal(t, len(full), len(base.ToolRegistry().Definitions()))
}

func TestScopeProfileToAgentIgnoresUnknownToolNames(t *testing.T) {
	base := NewAnthropicProfile("claude-opus-4-6")
	scoped := ScopeProfileToAgent(base, &AgentConfig{Name: "coder", Tools: []string{"does_not_exist"}})
	assert.Empty(t, scoped.Tools())
}

func TestScopeProfileToAgentDelegatesOtherMethods(t *testing.T) {
	base := NewAnthropicProfile("claude-opus-4-6")
	full := base.ToolRegistry().Definitions()
	require.NotEmpty(t, full)

	scoped := ScopeProfileToAgent(base, &AgentConfig{Name: "coder", Tools: []string{full[0].Name}})
	assert.Equal(t, base.ID(), scoped.ID())
	assert.Equal(t, base.ModelID(), scoped.ModelID())
	assert.Equal(t, base.ContextWindowSize(), scoped.ContextWindowSize())
}
