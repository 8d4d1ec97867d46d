// Package policy implements the ordered allow/deny/confirm rule set that
// gates every side-effecting tool invocation. It is grounded on the
// original apchat-main implementation's app/web_server.rs, where a single
// PolicyManager is constructed once per process and threaded by reference
// into both the CLI and the web server; this package mirrors that lifetime.
//
// There is no glob/regex-matching third-party library anywhere in the
// example pack this module was grown from, so rule matching is built on the
// standard library (path/filepath for globs, regexp for regex patterns) —
// the same pair the execution environment already uses for its own Glob
// tool. See the repository's DESIGN.md for the full justification.
package policy

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActionType names the category of side-effecting action being checked.
type ActionType string

const (
	ActionFileWrite  ActionType = "file.write"
	ActionFileEdit   ActionType = "file.edit"
	ActionCommandRun ActionType = "command.run"
	ActionPTYLaunch  ActionType = "pty.launch"
	ActionPTYKill    ActionType = "pty.kill"
)

// Decision is the outcome of evaluating a rule set against an action.
type Decision string

const (
	DecisionAllow   Decision = "allow"
	DecisionDeny    Decision = "deny"
	DecisionConfirm Decision = "confirm"
)

// PatternKind selects how a Rule's TargetPattern is matched against a
// target string.
type PatternKind string

const (
	PatternGlob  PatternKind = "glob"
	PatternRegex PatternKind = "regex"
)

// Rule is one entry in the ordered policy-rule file: an action type, a
// target pattern, and the decision to apply when both match. RememberedAt
// is set on rules learned from a user's "remember this choice" response.
type Rule struct {
	ID             string      `yaml:"id,omitempty" json:"id,omitempty"`
	ActionType     ActionType  `yaml:"action_type" json:"action_type"`
	TargetPattern  string      `yaml:"target_pattern" json:"target_pattern"`
	PatternKind    PatternKind `yaml:"pattern_kind,omitempty" json:"pattern_kind,omitempty"` // default: glob
	Decision       Decision    `yaml:"decision" json:"decision"`
	RememberedAt   *time.Time  `yaml:"remembered_at,omitempty" json:"remembered_at,omitempty"`
	compiledRegexp *regexp.Regexp
}

func (r *Rule) matches(target string) (bool, error) {
	kind := r.PatternKind
	if kind == "" {
		kind = PatternGlob
	}
	switch kind {
	case PatternGlob:
		return filepath.Match(r.TargetPattern, target)
	case PatternRegex:
		if r.compiledRegexp == nil {
			re, err := regexp.Compile(r.TargetPattern)
			if err != nil {
				return false, fmt.Errorf("compiling regex rule %q: %w", r.TargetPattern, err)
			}
			r.compiledRegexp = re
		}
		return r.compiledRegexp.MatchString(target), nil
	default:
		return false, fmt.Errorf("unknown pattern kind %q", kind)
	}
}

// Prompter is the abstract capability the manager uses to ask the user to
// resolve a `confirm` decision. The CLI binds this to terminal prompts, the
// web frontend binds it to a WebSocket round-trip (see the wsproto
// package's ConfirmTool message); neither binding lives in this package.
type Prompter interface {
	// Confirm asks the user to approve or deny actionType against target,
	// optionally returning a rule to remember for future identical checks.
	// diff, when non-empty, is a preview of the change being confirmed
	// (e.g. a file-edit diff).
	Confirm(actionType ActionType, target, diff string) (approved bool, remember *Rule, err error)
}

// Manager holds the ordered rule set and decides each action. It is
// constructed once per process and passed by reference into every
// ToolContext; learned rules append under a lock so concurrent tool
// invocations never race.
type Manager struct {
	mu       sync.RWMutex
	rules    []Rule
	prompter Prompter
}

// NewManager builds a Manager from an initial ordered rule set (e.g. loaded
// from a policy-rule YAML file) and a Prompter used to resolve `confirm`
// decisions. prompter may be nil if the embedding application never
// expects a `confirm` rule to fire (any confirm decision then denies, since
// there is nobody to ask).
func NewManager(rules []Rule, prompter Prompter) *Manager {
	return &Manager{rules: append([]Rule(nil), rules...), prompter: prompter}
}

// Decide evaluates the ordered rule set against (actionType, target),
// consulting the Prompter if the first matching rule is `confirm`. A
// target matching no rule defaults to `confirm` — unrecognised actions are
// never silently allowed.
func (m *Manager) Decide(actionType ActionType, target, diff string) (Decision, error) {
	m.mu.RLock()
	rules := append([]Rule(nil), m.rules...)
	m.mu.RUnlock()

	decision := DecisionConfirm
	for i := range rules {
		rule := &rules[i]
		if rule.ActionType != actionType {
			continue
		}
		ok, err := rule.matches(target)
		if err != nil {
			return "", err
		}
		if ok {
			decision = rule.Decision
			break
		}
	}

	if decision != DecisionConfirm {
		return decision, nil
	}

	if m.prompter == nil {
		return DecisionDeny, nil
	}
	approved, remember, err := m.prompter.Confirm(actionType, target, diff)
	if err != nil {
		return "", err
	}
	if remember != nil {
		m.Remember(*remember)
	}
	if approved {
		return DecisionAllow, nil
	}
	return DecisionDeny, nil
}

// Remember appends a learned rule under the manager's lock. If rule.ID is
// empty, one is generated. Learned rules are appended (evaluated after any
// pre-loaded rule of higher precedence) and take effect immediately for
// subsequent Decide calls; whether they survive a process restart is left
// to the embedding application (§9 open question — persistence is
// optional), which may read Rules() and write them back to the policy-rule
// file itself.
func (m *Manager) Remember(rule Rule) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.RememberedAt = &now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule)
}

// Rules returns a snapshot of the current ordered rule set.
func (m *Manager) Rules() []Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Rule(nil), m.rules...)
}
