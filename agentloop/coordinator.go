package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/opencoder/agentcore/agentloop/policy"
	"github.com/opencoder/agentcore/agentloop/ptyctl"
	"github.com/opencoder/agentcore/unifiedllm"
	"go.uber.org/zap"
)

// plannerSubtask is one entry of the planner's JSON plan, per §4.5.
type plannerSubtask struct {
	Description   string `json:"description"`
	AssignedAgent string `json:"assigned_agent"`
}

// plannerOutput is the JSON contract the planner agent is instructed to
// emit: either a single task or a decomposed list of subtasks.
type plannerOutput struct {
	Strategy string           `json:"strategy"`
	Subtasks []plannerSubtask `json:"subtasks"`
}

// CoordinatorDeps bundles the process-scoped collaborators every session
// the coordinator spins up should share.
type CoordinatorDeps struct {
	Policy         *policy.Manager
	PTY            *ptyctl.Manager
	ColourResolver *ColourResolver
	Logger         *zap.Logger
	IterationSeed  func() *IterationController // produces a fresh controller per task
}

// Coordinator is the Planning Coordinator of §4.5: it receives a user
// request, runs the planner agent, parses its plan, and dispatches each
// subtask to its assigned agent in turn, aggregating the results.
type Coordinator struct {
	configs    map[string]*AgentConfig
	deps       CoordinatorDeps
	env        ExecutionEnvironment
	visibility *Visibility
	colour     Colour
}

// NewCoordinator builds a coordinator over the given agent configs and
// execution environment. startColour is only the value CurrentColour
// reports until a subtask completes; every session, the planner's included,
// runs on the colour its own AgentConfig names, resolved through
// deps.ColourResolver.
func NewCoordinator(configs map[string]*AgentConfig, env ExecutionEnvironment, deps CoordinatorDeps, startColour Colour) *Coordinator {
	return &Coordinator{
		configs:    configs,
		deps:       deps,
		env:        env,
		visibility: NewVisibility(nil),
		colour:     startColour,
	}
}

// Visibility exposes the coordinator's task tree to a host UI or logger.
func (c *Coordinator) Visibility() *Visibility { return c.visibility }

// CurrentColour returns the colour currently in effect after the most
// recently completed ProcessRequest call.
func (c *Coordinator) CurrentColour() Colour { return c.colour }

// ProcessRequest is the coordinator's entry point: plan, dispatch, and
// aggregate a response to userText.
func (c *Coordinator) ProcessRequest(ctx context.Context, userText string) (string, error) {
	root := c.visibility.NewTask("", "planner", userText)
	c.visibility.SetPhase(root.ID, PhasePlanning)

	plan, err := c.plan(ctx, root.ID, userText)
	if err != nil {
		c.visibility.Transition(root.ID, TaskFailed, err.Error())
		return "", err
	}

	c.visibility.SetPhase(root.ID, PhaseAgentSelect)

	var aggregated strings.Builder
	priorResult := ""
	for i, subtask := range plan.Subtasks {
		taskNode := c.visibility.NewTask(root.ID, subtask.AssignedAgent, subtask.Description)
		c.visibility.SetPhase(taskNode.ID, PhaseTaskExecution)
		c.visibility.Transition(taskNode.ID, TaskRunning, "")

		result, fatal, runErr := c.runSubtask(ctx, taskNode.ID, subtask, priorResult)
		if runErr != nil {
			c.visibility.Transition(taskNode.ID, TaskFailed, runErr.Error())
			if fatal {
				return "", runErr
			}
			fmt.Fprintf(&aggregated, "Subtask %d (%s) failed: %v\n", i+1, subtask.AssignedAgent, runErr)
			priorResult = fmt.Sprintf("[failed: %v]", runErr)
			continue
		}

		c.visibility.Transition(taskNode.ID, TaskCompleted, result)
		fmt.Fprintf(&aggregated, "%s\n", result)
		priorResult = result
	}

	c.visibility.SetPhase(root.ID, PhaseAggregation)
	c.visibility.Transition(root.ID, TaskCompleted, aggregated.String())

	return strings.TrimSpace(aggregated.String()), nil
}

// plan runs the planner agent and parses its JSON output, falling back to
// a single subtask assigned to DefaultAgentName on any parse failure.
func (c *Coordinator) plan(ctx context.Context, taskID, userText string) (*plannerOutput, error) {
	plannerCfg, ok := c.configs["planner"]
	if !ok {
		return c.fallbackPlan(userText), nil
	}

	session, err := c.buildSession(plannerCfg, taskID)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Submit(ctx, userText); err != nil {
		return nil, NewFatalError("planner session failed", err)
	}

	text := lastAssistantText(session)
	out, ok := parsePlannerJSON(text)
	if !ok {
		return c.fallbackPlan(userText), nil
	}
	if len(out.Subtasks) == 0 {
		return c.fallbackPlan(userText), nil
	}
	return out, nil
}

// fallbackPlan builds the single-subtask plan used whenever the planner's
// output cannot be parsed, per §4.5 step 3.
func (c *Coordinator) fallbackPlan(userText string) *plannerOutput {
	return &plannerOutput{
		Strategy: "single_task",
		Subtasks: []plannerSubtask{{
			Description:   userText,
			AssignedAgent: DefaultAgentName,
		}},
	}
}

// parsePlannerJSON extracts a plannerOutput from the planner's free-form
// response text, tolerating a JSON object embedded in surrounding prose.
func parsePlannerJSON(text string) (*plannerOutput, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, false
	}
	var out plannerOutput
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, false
	}
	return &out, true
}

// runSubtask dispatches one subtask to its assigned agent, never the
// planner itself. It returns (result, fatal, error); fatal indicates the
// failure should abort remaining subtasks (policy-denied core action or
// upstream auth failure), per §4.5's failure-mode rule.
func (c *Coordinator) runSubtask(ctx context.Context, taskID string, subtask plannerSubtask, priorResult string) (string, bool, error) {
	if subtask.AssignedAgent == "planner" {
		subtask.AssignedAgent = DefaultAgentName
	}
	cfg, ok := c.configs[subtask.AssignedAgent]
	if !ok {
		cfg, ok = c.configs[DefaultAgentName]
		if !ok {
			return "", false, fmt.Errorf("no agent config for %q and no default available", subtask.AssignedAgent)
		}
		if c.deps.Logger != nil {
			c.deps.Logger.Warn("unknown assigned_agent; falling back to default",
				zap.String("assigned_agent", subtask.AssignedAgent),
				zap.String("default", DefaultAgentName))
		}
	}

	session, err := c.buildSession(cfg, taskID)
	if err != nil {
		return "", true, err
	}
	defer session.Close()

	input := subtask.Description
	if priorResult != "" {
		input = fmt.Sprintf("Context from the previous subtask:\n%s\n\nYour task:\n%s", priorResult, subtask.Description)
	}

	if err := session.Submit(ctx, input); err != nil {
		fatal := IsFatal(err)
		if kind, ok := KindOf(err); ok && (kind == KindPolicyDenied || kind == KindFatal) {
			fatal = true
		}
		var authErr *unifiedllm.AuthenticationError
		if errors.As(err, &authErr) {
			fatal = true
		}
		return "", fatal, err
	}

	c.colour = session.CurrentColour()
	return lastAssistantText(session), false, nil
}

// buildSession constructs a session for cfg, scoping its tool surface and
// attaching the coordinator's shared deps plus a fresh colour and
// iteration controller for the task.
func (c *Coordinator) buildSession(cfg *AgentConfig, taskID string) (*Session, error) {
	colour := cfg.Model
	if !colour.Valid() {
		colour = ColourBlu
	}

	resolver := c.deps.ColourResolver
	if resolver == nil {
		resolver = DefaultColourResolver()
	}
	resolved, err := resolver.Resolve(colour)
	if err != nil {
		return nil, err
	}

	base, err := BuildProfile(resolved)
	if err != nil {
		return nil, err
	}
	profile := ScopeProfileToAgent(base, cfg)

	llmClient, err := resolver.Client(colour)
	if err != nil {
		return nil, err
	}

	sessCfg := DefaultSessionConfig()
	if cfg.IterationCap > 0 {
		sessCfg.MaxToolRoundsPerInput = cfg.IterationCap
	}
	if cfg.SystemPrompt != "" {
		sessCfg.UserInstructions = cfg.SystemPrompt
	}

	session := NewSession(profile, c.env, &sessCfg)
	session.SetClient(llmClient)

	iteration := c.deps.IterationSeed
	var ic *IterationController
	if iteration != nil {
		ic = iteration()
	} else {
		ic = NewIterationController(sessCfg.MaxToolRoundsPerInput, sessCfg.MaxToolRoundsPerInput*4, 20, 10)
	}

	session.WithDeps(SessionDeps{
		Policy:         c.deps.Policy,
		PTY:            c.deps.PTY,
		Visibility:     c.visibility,
		Colour:         colour,
		ColourResolver: resolver,
		Iteration:      ic,
		Logger:         c.deps.Logger,
	})
	session.SetTaskID(taskID)

	return session, nil
}

// lastAssistantText returns the most recent assistant message's text, or
// an empty string if the session produced none.
func lastAssistantText(session *Session) string {
	history := session.History()
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Kind == TurnAssistant && turn.Assistant != nil {
			return turn.Assistant.Content
		}
	}
	return ""
}
