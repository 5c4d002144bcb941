package statemachine_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/statemachine"
	"github.com/denkhaus/conductor/internal/types"
)

func alwaysReady(uuid.UUID) (bool, []uuid.UUID) { return true, nil }

func TestValidateTaskTransitionRejectsIllegalEdge(t *testing.T) {
	m := statemachine.New()
	task := &types.Task{ID: uuid.New(), Status: types.StatusDone}

	err := m.ValidateTaskTransition(task, types.StatusInProgress, alwaysReady)

	require.Error(t, err)
	assert.Equal(t, orcherrors.ValidationError, orcherrors.CodeOf(err))
}

func TestValidateTaskTransitionBlockedByDependencies(t *testing.T) {
	m := statemachine.New()
	task := &types.Task{ID: uuid.New(), Status: types.StatusTodo}
	blocker := uuid.New()
	notReady := func(uuid.UUID) (bool, []uuid.UUID) { return false, []uuid.UUID{blocker} }

	err := m.ValidateTaskTransition(task, types.StatusInProgress, notReady)

	require.Error(t, err)
	assert.Equal(t, orcherrors.DependenciesUnsatisfied, orcherrors.CodeOf(err))
}

func TestCompletionGateRequiresSummaryAndSubtasks(t *testing.T) {
	m := statemachine.New()
	task := &types.Task{ID: uuid.New(), Status: types.StatusInProgress}

	err := m.ValidateTaskTransition(task, types.StatusDone, alwaysReady)
	require.Error(t, err)
	assert.Equal(t, orcherrors.ValidationError, orcherrors.CodeOf(err))

	task.CompletionSummary = "shipped"
	task.Subtasks = []*types.Subtask{{Status: types.StatusTodo}}
	err = m.ValidateTaskTransition(task, types.StatusDone, alwaysReady)
	require.Error(t, err)

	task.Subtasks[0].Status = types.StatusCancelled
	err = m.ValidateTaskTransition(task, types.StatusDone, alwaysReady)
	assert.NoError(t, err)
}

func TestValidTransitionsFromIsTerminalForDone(t *testing.T) {
	m := statemachine.New()
	assert.Empty(t, m.ValidTransitionsFrom(types.StatusDone))
	assert.Empty(t, m.ValidTransitionsFrom(types.StatusCancelled))
}
