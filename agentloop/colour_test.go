package agentloop

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColourResolveUsesCompiledInDefaults(t *testing.T) {
	r := DefaultColourResolver()
	resolved, err := r.Resolve(ColourBlu)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", resolved.Backend)
	assert.Equal(t, "claude-opus-4-6", resolved.ModelID)
}

func TestColourResolveRejectsUnknownColour(t *testing.T) {
	r := DefaultColourResolver()
	_, err := r.Resolve(Colour("purple"))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestColourResolveAppliesEnvOverride(t *testing.T) {
	t.Setenv("AGENTCORE_GRN_MODEL", "gpt-custom@openai(https://example.test/v1)")
	r := DefaultColourResolver()
	resolved, err := r.Resolve(ColourGrn)
	require.NoError(t, err)
	assert.Equal(t, "gpt-custom", resolved.ModelID)
	assert.Equal(t, "openai", resolved.Backend)
	assert.Equal(t, "https://example.test/v1", resolved.Endpoint)
}

func TestColourResolveRejectsMalformedOverride(t *testing.T) {
	t.Setenv("AGENTCORE_RED_MODEL", "not-a-valid-override")
	r := DefaultColourResolver()
	_, err := r.Resolve(ColourRed)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestColourResolveReadsCredentialFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-secret-value")
	defer os.Unsetenv("ANTHROPIC_API_KEY")
	r := DefaultColourResolver()
	resolved, err := r.Resolve(ColourBlu)
	require.NoError(t, err)
	assert.Equal(t, "test-secret-value", resolved.Credential)
}

func TestColourValid(t *testing.T) {
	assert.True(t, ColourBlu.Valid())
	assert.True(t, ColourGrn.Valid())
	assert.True(t, ColourRed.Valid())
	assert.False(t, Colour("purple").Valid())
}
