package agentloop

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase annotates where a task sits in the coordinator's pipeline. Per
// §4.8 these are surfaced to the UI and logs as the task moves through
// planning, selection, execution, and aggregation.
type Phase string

const (
	PhasePlanning      Phase = "Planning"
	PhaseAgentSelect   Phase = "AgentSelection"
	PhaseTaskExecution Phase = "TaskExecution"
	PhaseAggregation   Phase = "Aggregation"
	PhaseCompleted     Phase = "Completed"
)

// Visibility maintains a tree of Task records with phase annotations and
// emits change events for UI consumers. It is pure bookkeeping: a failure
// to record a task transition never fails the task itself, it is only
// ever best-effort observability.
type Visibility struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	phases  map[string]Phase
	emitter *EventEmitter
}

// NewVisibility creates a tracker that reports task-tree changes on the
// given emitter (typically the owning Session's).
func NewVisibility(emitter *EventEmitter) *Visibility {
	return &Visibility{
		tasks:   make(map[string]*Task),
		phases:  make(map[string]Phase),
		emitter: emitter,
	}
}

// NewTask registers a new task under the given parent (empty for a root
// task) and returns it.
func (v *Visibility) NewTask(parentID, assignedAgent, description string) *Task {
	v.mu.Lock()
	defer v.mu.Unlock()

	depth := 0
	if parent, ok := v.tasks[parentID]; ok {
		depth = parent.Depth + 1
	}
	now := time.Now()
	t := &Task{
		ID:            uuid.New().String(),
		ParentID:      parentID,
		Depth:         depth,
		AssignedAgent: assignedAgent,
		Description:   description,
		Status:        TaskPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	v.tasks[t.ID] = t
	v.emit(t, PhasePlanning)
	return t
}

// SetPhase records the pipeline phase a task currently occupies.
func (v *Visibility) SetPhase(taskID string, phase Phase) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t, ok := v.tasks[taskID]
	if !ok {
		return
	}
	v.emit(t, phase)
}

// Transition moves a task to a new status (validated against the
// terminal-once rule) and records the result text for terminal states.
func (v *Visibility) Transition(taskID string, status TaskStatus, result string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t, ok := v.tasks[taskID]
	if !ok {
		return
	}
	if t.Status.terminal() {
		return
	}
	t.Status = status
	t.Result = result
	t.UpdatedAt = time.Now()

	phase := v.phases[taskID]
	if status.terminal() {
		phase = PhaseCompleted
	}
	v.emit(t, phase)
}

// Get returns a snapshot of a task by ID, or nil if unknown.
func (v *Visibility) Get(taskID string) *Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	t, ok := v.tasks[taskID]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// Tree returns a snapshot of every known task, for surfacing the full
// tree to a UI or log sink.
func (v *Visibility) Tree() []*Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*Task, 0, len(v.tasks))
	for _, t := range v.tasks {
		cp := *t
		out = append(out, &cp)
	}
	return out
}

// emit must be called with mu held; it records the phase and best-effort
// notifies the emitter, swallowing the case where emitter is nil (e.g. in
// tests that construct a Visibility standalone).
func (v *Visibility) emit(t *Task, phase Phase) {
	v.phases[t.ID] = phase
	if v.emitter == nil {
		return
	}
	v.emitter.Emit(EventTaskUpdate, map[string]interface{}{
		"task_id":  t.ID,
		"parent":   t.ParentID,
		"agent":    t.AssignedAgent,
		"status":   string(t.Status),
		"phase":    string(phase),
		"depth":    t.Depth,
	})
}
