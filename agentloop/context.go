package agentloop

import (
	"sync"

	"github.com/opencoder/agentcore/agentloop/policy"
	"github.com/opencoder/agentcore/agentloop/ptyctl"
	"go.uber.org/zap"
)

// IterationController tracks the mutable per-task iteration budget and
// implements the request_more_iterations grant rule from §4.4: a grant
// raises the budget strictly, by no more than its declared increment, and
// is capped by a per-task hard ceiling.
type IterationController struct {
	mu        sync.Mutex
	used      int
	budget    int
	ceiling   int
	maxGrant  int
	minReason int
}

// NewIterationController builds a controller with the given starting
// budget, hard ceiling, maximum single-grant increment, and minimum
// justification length for request_more_iterations.
func NewIterationController(budget, ceiling, maxGrant, minReasonLen int) *IterationController {
	return &IterationController{budget: budget, ceiling: ceiling, maxGrant: maxGrant, minReason: minReasonLen}
}

// Budget returns the current iteration budget.
func (c *IterationController) Budget() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget
}

// Used returns the number of iterations consumed so far.
func (c *IterationController) Used() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Advance records one consumed iteration.
func (c *IterationController) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.used++
}

// NearLimit reports whether the controller is within 2 iterations of its
// budget — the trigger for §4.4 step 1's soft warning.
func (c *IterationController) NearLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used >= c.budget-2
}

// AtLimit reports whether the budget has been reached.
func (c *IterationController) AtLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used >= c.budget
}

// Grant extends the budget by increment, bounded by maxGrant and the
// per-task ceiling, provided justification meets the minimum length. It
// returns the new budget, or an error if the request is invalid or the
// ceiling has already been reached.
func (c *IterationController) Grant(increment int, justification string) (int, error) {
	if len(justification) < c.minReason {
		return 0, NewSchemaInvalidError("request_more_iterations", nil)
	}
	if increment <= 0 {
		return 0, NewSchemaInvalidError("request_more_iterations", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if increment > c.maxGrant {
		increment = c.maxGrant
	}
	newBudget := c.budget + increment
	if c.ceiling > 0 && newBudget > c.ceiling {
		newBudget = c.ceiling
	}
	if newBudget <= c.budget {
		return c.budget, NewBudgetExhaustedError(c.budget)
	}
	c.budget = newBudget
	return c.budget, nil
}

// ConversationHandle is the narrow view of a session's conversation state
// that tools (principally summarize/save/load and model-switch tools) are
// allowed to touch, kept separate from Session itself so a ToolContext
// never has to embed the whole orchestrator.
type ConversationHandle struct {
	session *Session
}

// History returns a copy of the conversation history.
func (h *ConversationHandle) History() []Turn { return h.session.History() }

// CurrentColour returns the conversation's active model colour.
func (h *ConversationHandle) CurrentColour() Colour { return h.session.CurrentColour() }

// SwitchColour mutates the conversation's active model colour for
// subsequent turns, per §4.6's switch_model tool.
func (h *ConversationHandle) SwitchColour(c Colour) { h.session.SwitchColour(c) }

// Save persists the conversation to path, per §4.6/§6.
func (h *ConversationHandle) Save(path string) error { return h.session.Save(path) }

// Load restores the conversation from path, per §4.6/§6.
func (h *ConversationHandle) Load(path string) error { return h.session.Load(path) }

// ToolContext is passed to every tool invocation per §4.2: it bundles the
// workspace execution environment, the policy manager, the PTY manager,
// the visibility tracker, a handle to the conversation state, and the
// iteration controller. It is a bundle of borrowed references — per the
// Design Notes' "cyclic references" guidance — and tools must not retain
// it beyond a single invocation.
type ToolContext struct {
	ExecutionEnvironment
	Policy       *policy.Manager
	PTY          *ptyctl.Manager
	Visibility   *Visibility
	Conversation *ConversationHandle
	Iteration    *IterationController
	Logger       *zap.Logger
	TaskID       string
}
