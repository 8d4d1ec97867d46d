package agentloop

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the coordinator-level errors the agent loop and
// planning coordinator can surface. Most kinds are handed to the agent as
// a normal tool result and are not fatal to the request; see Kind's doc
// comment on each constant for the propagation rule.
type ErrorKind int

const (
	// KindSchemaInvalid means tool-call arguments failed validation even
	// after one repair attempt. Surfaced to the agent as a tool result.
	KindSchemaInvalid ErrorKind = iota
	// KindPolicyDenied means the policy manager blocked a tool invocation.
	// Surfaced to the agent as a tool result.
	KindPolicyDenied
	// KindToolFailure means a tool handler returned a failure. Surfaced
	// to the agent as a tool result.
	KindToolFailure
	// KindSessionCapacity means the PTY manager is at its concurrent
	// session ceiling.
	KindSessionCapacity
	// KindSessionNotFound means a PTY tool referenced an unknown session id.
	KindSessionNotFound
	// KindBudgetExhausted means the iteration budget was reached without
	// a final response. The partial transcript is retained by the caller.
	KindBudgetExhausted
	// KindCancelled means cooperative cancellation unwound the request.
	// Partial state is preserved by the caller.
	KindCancelled
	// KindFatal means a configuration, credential, or invariant-violation
	// error. These propagate to the top level and abort the request —
	// they are never surfaced to the agent as a tool result.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchemaInvalid:
		return "schema_invalid"
	case KindPolicyDenied:
		return "policy_denied"
	case KindToolFailure:
		return "tool_failure"
	case KindSessionCapacity:
		return "session_capacity"
	case KindSessionNotFound:
		return "session_not_found"
	case KindBudgetExhausted:
		return "budget_exhausted"
	case KindCancelled:
		return "cancelled"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CoordinatorError is the base error type for agentloop's own error kinds,
// mirroring unifiedllm.SDKError: a message, an optional wrapped cause, and
// a Kind used for classification instead of type switches.
type CoordinatorError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *CoordinatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoordinatorError) Unwrap() error {
	return e.Cause
}

// NewSchemaInvalidError reports a tool-call argument validation failure
// that survived one repair attempt.
func NewSchemaInvalidError(toolName string, cause error) *CoordinatorError {
	return &CoordinatorError{Kind: KindSchemaInvalid, Message: fmt.Sprintf("arguments for %q failed validation", toolName), Cause: cause}
}

// NewPolicyDeniedError reports a policy-manager deny decision.
func NewPolicyDeniedError(actionType, target string) *CoordinatorError {
	return &CoordinatorError{Kind: KindPolicyDenied, Message: fmt.Sprintf("%s: %s is not permitted", actionType, target)}
}

// NewToolFailureError wraps a tool handler's own failure.
func NewToolFailureError(toolName string, cause error) *CoordinatorError {
	return &CoordinatorError{Kind: KindToolFailure, Message: fmt.Sprintf("tool %q failed", toolName), Cause: cause}
}

// NewSessionCapacityError reports the PTY manager is at its concurrent
// session ceiling.
func NewSessionCapacityError(limit int) *CoordinatorError {
	return &CoordinatorError{Kind: KindSessionCapacity, Message: fmt.Sprintf("at concurrent session limit (%d)", limit)}
}

// NewSessionNotFoundError reports an unknown PTY session id.
func NewSessionNotFoundError(id string) *CoordinatorError {
	return &CoordinatorError{Kind: KindSessionNotFound, Message: fmt.Sprintf("no session with id %q", id)}
}

// NewBudgetExhaustedError reports the iteration budget was reached
// without a final response.
func NewBudgetExhaustedError(iterations int) *CoordinatorError {
	return &CoordinatorError{Kind: KindBudgetExhausted, Message: fmt.Sprintf("iteration budget (%d) exhausted without a final response", iterations)}
}

// NewCancelledError reports cooperative cancellation.
func NewCancelledError(reason string) *CoordinatorError {
	return &CoordinatorError{Kind: KindCancelled, Message: reason}
}

// NewFatalError wraps a configuration, credential, or invariant-violation
// error that must abort the request.
func NewFatalError(message string, cause error) *CoordinatorError {
	return &CoordinatorError{Kind: KindFatal, Message: message, Cause: cause}
}

// IsFatal reports whether err must abort the request rather than be
// surfaced to the agent as a tool result.
func IsFatal(err error) bool {
	var ce *CoordinatorError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == KindFatal
}

// KindOf extracts the ErrorKind of err, if it (or something it wraps) is
// a *CoordinatorError. The ok return is false for any other error type.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CoordinatorError
	if !errors.As(err, &ce) {
		return 0, false
	}
	return ce.Kind, true
}
