package agentloop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatalOnlyMatchesFatalKind(t *testing.T) {
	assert.True(t, IsFatal(NewFatalError("bad config", nil)))
	assert.False(t, IsFatal(NewPolicyDeniedError("pty_launch", "rm -rf")))
	assert.False(t, IsFatal(errors.New("plain error")))
}

func TestKindOfExtractsWrappedCoordinatorError(t *testing.T) {
	wrapped := NewToolFailureError("read_file", errors.New("disk error"))
	outer := NewFatalError("top level", wrapped)

	kind, ok := KindOf(outer)
	assert.True(t, ok)
	assert.Equal(t, KindFatal, kind)
}

func TestKindOfFalseForNonCoordinatorError(t *testing.T) {
	_, ok := KindOf(errors.New("not a coordinator error"))
	assert.False(t, ok)
}

func TestCoordinatorErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewToolFailureError("shell", cause)
	assert.ErrorIs(t, err, cause)
}

func TestCoordinatorErrorMessageIncludesKindAndLimit(t *testing.T) {
	err := NewSessionCapacityError(15)
	assert.Contains(t, err.Error(), "session_capacity")
	assert.Contains(t, err.Error(), "15")
}
