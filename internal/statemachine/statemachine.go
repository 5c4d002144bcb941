// Package statemachine validates Task/Subtask status transitions per
// spec.md §4.3: an allowed-transition matrix plus a slice of named
// validation rules, generalised to the seven-state enum of
// types.Status and returning OrchestrationError codes.
package statemachine

import (
	"fmt"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// Transition is one (from, to) edge of the allowed-transition matrix.
type Transition struct {
	From types.Status
	To   types.Status
}

// Machine holds the fixed transition matrix of spec.md §4.3.
type Machine struct {
	allowed map[Transition]bool
}

// New builds a Machine with spec.md §4.3's transition matrix:
//
//	todo -> in_progress
//	in_progress -> {review, testing, blocked, done, cancelled}
//	blocked -> in_progress
//	review|testing -> {in_progress, done, cancelled}
//	done, cancelled: terminal (no outgoing edges)
func New() *Machine {
	m := &Machine{allowed: make(map[Transition]bool)}
	edges := []Transition{
		{types.StatusTodo, types.StatusInProgress},

		{types.StatusInProgress, types.StatusReview},
		{types.StatusInProgress, types.StatusTesting},
		{types.StatusInProgress, types.StatusBlocked},
		{types.StatusInProgress, types.StatusDone},
		{types.StatusInProgress, types.StatusCancelled},

		{types.StatusBlocked, types.StatusInProgress},

		{types.StatusReview, types.StatusInProgress},
		{types.StatusReview, types.StatusDone},
		{types.StatusReview, types.StatusCancelled},

		{types.StatusTesting, types.StatusInProgress},
		{types.StatusTesting, types.StatusDone},
		{types.StatusTesting, types.StatusCancelled},
	}
	for _, e := range edges {
		m.allowed[e] = true
	}
	return m
}

// CanTransition reports whether from -> to is a legal edge.
func (m *Machine) CanTransition(from, to types.Status) bool {
	if from == to {
		return true
	}
	return m.allowed[Transition{from, to}]
}

// ValidTransitionsFrom lists the legal next states from from, for error
// messages and for the orchestration facade's workflow_guidance field.
func (m *Machine) ValidTransitionsFrom(from types.Status) []types.Status {
	var out []types.Status
	for t := range m.allowed {
		if t.From == from {
			out = append(out, t.To)
		}
	}
	return out
}

// Readiness reports whether a task's blocking ("blocks") dependencies are
// satisfied; callers supply it from the dependency graph (internal/selection)
// so this package stays free of a dependency on the selector.
type Readiness func(taskID uuid.UUID) (ready bool, blockers []uuid.UUID)

// ValidateTaskTransition checks from->to against the matrix, then applies
// the §4.3 transition-specific gates: dependency readiness into
// in_progress, and the completion gate into done.
func (m *Machine) ValidateTaskTransition(task *types.Task, to types.Status, ready Readiness) error {
	if !m.CanTransition(task.Status, to) {
		return invalidTransitionErr(task.Status, to, m.ValidTransitionsFrom(task.Status))
	}

	if to == types.StatusInProgress && task.Status != types.StatusInProgress {
		if ok, blockers := ready(task.ID); !ok {
			return orcherrors.DependenciesUnsatisfiedErr(blockerStrings(blockers))
		}
	}

	if to == types.StatusDone {
		return m.CompletionGate(task)
	}

	return nil
}

// CompletionGate enforces §4.3's "into done" requirements independent of
// the transition matrix, so the orchestration facade can pre-validate a
// complete() call before saving the task.
func (m *Machine) CompletionGate(task *types.Task) error {
	if task.CompletionSummary == "" {
		return orcherrors.ValidationErr("completion_summary is required to complete a task")
	}
	for _, s := range task.Subtasks {
		if s.Incomplete() {
			return orcherrors.ValidationErr(
				fmt.Sprintf("subtask %s is not done or cancelled", s.ID))
		}
	}
	return nil
}

// ValidateSubtaskTransition mirrors ValidateTaskTransition for subtasks,
// which share the Status enum but have no dependency graph of their own.
func (m *Machine) ValidateSubtaskTransition(sub *types.Subtask, to types.Status) error {
	if !m.CanTransition(sub.Status, to) {
		return invalidTransitionErr(sub.Status, to, m.ValidTransitionsFrom(sub.Status))
	}
	if to == types.StatusDone && sub.CompletionSummary == "" {
		return orcherrors.ValidationErr("completion_summary is required to complete a subtask")
	}
	return nil
}

func invalidTransitionErr(from, to types.Status, valid []types.Status) *orcherrors.OrchestrationError {
	return orcherrors.ValidationErr(
		fmt.Sprintf("invalid state transition from %q to %q (valid: %v)", from, to, valid))
}

func blockerStrings(blockers []uuid.UUID) []string {
	out := make([]string, len(blockers))
	for i, b := range blockers {
		out[i] = b.String()
	}
	return out
}
