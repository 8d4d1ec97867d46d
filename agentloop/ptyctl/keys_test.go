package ptyctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretKeys_ControlAndSpecialTokens(t *testing.T) {
	assert.Equal(t, "\x03", InterpretKeys("^C", true))
	assert.Equal(t, "\x1b[A", InterpretKeys("[UP]", true))
	assert.Equal(t, "hello\r", InterpretKeys("hello[ENTER]", true))
}

func TestInterpretKeys_NoInterpretationPassesThrough(t *testing.T) {
	assert.Equal(t, "^C[UP]", InterpretKeys("^C[UP]", false))
}

func TestInterpretKeys_UnknownTokenPassesThroughLiterally(t *testing.T) {
	assert.Equal(t, "[NOPE]", InterpretKeys("[NOPE]", true))
}
