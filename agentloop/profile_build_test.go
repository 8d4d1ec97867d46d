package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfileSwitchesOnBackend(t *testing.T) {
	cases := []struct {
		backend  string
		wantID   string
	}{
		{"anthropic", "anthropic"},
		{"openai", "openai"},
		{"gemini", "gemini"},
	}
	for _, tc := range cases {
		profile, err := BuildProfile(ResolvedModel{Backend: tc.backend, ModelID: "some-model"})
		require.NoError(t, err)
		assert.Equal(t, tc.wantID, profile.ID())
	}
}

func TestBuildProfileUnknownBackendIsFatal(t *testing.T) {
	_, err := BuildProfile(ResolvedModel{Backend: "carrier-pigeon", ModelID: "x"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}
