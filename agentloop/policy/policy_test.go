package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	approve  bool
	remember *Rule
	calls    int
}

func (f *fakePrompter) Confirm(actionType ActionType, target, diff string) (bool, *Rule, error) {
	f.calls++
	return f.approve, f.remember, nil
}

func TestDecide_FirstMatchWins(t *testing.T) {
	mgr := NewManager([]Rule{
		{ActionType: ActionFileWrite, TargetPattern: "/etc/*", Decision: DecisionDeny},
		{ActionType: ActionFileWrite, TargetPattern: "/etc/*", Decision: DecisionAllow},
	}, nil)

	decision, err := mgr.Decide(ActionFileWrite, "/etc/passwd", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionDeny, decision)
}

func TestDecide_NoMatchDefaultsToConfirmThenPrompter(t *testing.T) {
	prompter := &fakePrompter{approve: true}
	mgr := NewManager(nil, prompter)

	decision, err := mgr.Decide(ActionCommandRun, "rm -rf /", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
	assert.Equal(t, 1, prompter.calls)
}

func TestDecide_NoMatchNoPrompterDenies(t *testing.T) {
	mgr := NewManager(nil, nil)

	decision, err := mgr.Decide(ActionCommandRun, "rm -rf /", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionDeny, decision)
}

func TestDecide_ConfirmApprovalCanRememberRule(t *testing.T) {
	remembered := &Rule{ActionType: ActionCommandRun, TargetPattern: "ls *", Decision: DecisionAllow}
	prompter := &fakePrompter{approve: true, remember: remembered}
	mgr := NewManager(nil, prompter)

	_, err := mgr.Decide(ActionCommandRun, "ls -la", "")
	require.NoError(t, err)

	// Second identical decision no longer needs the prompter.
	decision, err := mgr.Decide(ActionCommandRun, "ls -la", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
	assert.Equal(t, 1, prompter.calls)
}

func TestDecide_RegexPattern(t *testing.T) {
	mgr := NewManager([]Rule{
		{ActionType: ActionCommandRun, TargetPattern: `^git (status|log|diff)`, PatternKind: PatternRegex, Decision: DecisionAllow},
	}, nil)

	decision, err := mgr.Decide(ActionCommandRun, "git status", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)

	decision, err = mgr.Decide(ActionCommandRun, "git push --force", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionConfirm == decision || decision == DecisionDeny, true)
}

func TestRules_SnapshotIsIndependent(t *testing.T) {
	mgr := NewManager([]Rule{{ActionType: ActionFileWrite, TargetPattern: "*", Decision: DecisionAllow}}, nil)
	snap := mgr.Rules()
	snap[0].Decision = DecisionDeny

	decision, err := mgr.Decide(ActionFileWrite, "foo.txt", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision, "mutating a snapshot must not affect the manager's own rules")
}
