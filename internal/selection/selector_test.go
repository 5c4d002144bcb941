package selection_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denkhaus/conductor/internal/selection"
	"github.com/denkhaus/conductor/internal/types"
)

func task(priority types.Priority, status types.Status, age time.Duration) *types.Task {
	return &types.Task{
		ID:        uuid.New(),
		Title:     string(priority) + "-" + string(status),
		Priority:  priority,
		Status:    status,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestSelectHappyPathHigherPriorityBlocked(t *testing.T) {
	t1 := task(types.PriorityHigh, types.StatusTodo, time.Hour)
	t2 := task(types.PriorityCritical, types.StatusTodo, time.Minute)
	deps := []types.TaskDependency{{TaskID: t2.ID, DependsOnTaskID: t1.ID, DependencyType: types.DependencyBlocks}}

	result := selection.Select([]*types.Task{t1, t2}, deps, nil, selection.Filters{})

	require.Equal(t, selection.KindTask, result.Kind)
	assert.Equal(t, t1.ID, result.Task.ID)
}

func TestSelectStatusMismatchBlocksSelection(t *testing.T) {
	t1 := task(types.PriorityLow, types.StatusTodo, time.Minute)
	ctxStatus := map[uuid.UUID]types.Status{t1.ID: types.StatusDone}

	result := selection.Select([]*types.Task{t1}, nil, ctxStatus, selection.Filters{})

	require.Equal(t, selection.KindStatusMismatch, result.Kind)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, t1.ID, result.Mismatches[0].TaskID)
}

func TestSelectNoMatchOnFilters(t *testing.T) {
	t1 := task(types.PriorityLow, types.StatusTodo, time.Minute)
	other := uuid.New()

	result := selection.Select([]*types.Task{t1}, nil, nil, selection.Filters{Assignee: &other})

	assert.Equal(t, selection.KindNoMatch, result.Kind)
}

func TestSelectCompletedWhenAllDone(t *testing.T) {
	t1 := task(types.PriorityMedium, types.StatusDone, time.Hour)
	t2 := task(types.PriorityHigh, types.StatusDone, time.Hour)

	result := selection.Select([]*types.Task{t1, t2}, nil, nil, selection.Filters{})

	require.Equal(t, selection.KindCompleted, result.Kind)
	assert.Equal(t, 2, result.Completion.Total)
}

func TestSelectBlockedSummaryWhenAllActionableBlocked(t *testing.T) {
	blocker := task(types.PriorityLow, types.StatusBlocked, time.Hour)
	blocked := task(types.PriorityHigh, types.StatusTodo, time.Minute)
	deps := []types.TaskDependency{{TaskID: blocked.ID, DependsOnTaskID: blocker.ID, DependencyType: types.DependencyBlocks}}

	result := selection.Select([]*types.Task{blocker, blocked}, deps, nil, selection.Filters{})

	require.Equal(t, selection.KindBlocked, result.Kind)
	require.Len(t, result.BlockedTasks, 1)
	assert.Equal(t, blocked.ID, result.BlockedTasks[0].Task.ID)
}

func TestSelectReturnsIncompleteSubtask(t *testing.T) {
	t1 := task(types.PriorityHigh, types.StatusInProgress, time.Hour)
	sub := &types.Subtask{ID: uuid.New(), TaskID: t1.ID, Status: types.StatusTodo}
	t1.Subtasks = []*types.Subtask{sub}

	result := selection.Select([]*types.Task{t1}, nil, nil, selection.Filters{})

	require.Equal(t, selection.KindSubtask, result.Kind)
	assert.Equal(t, sub.ID, result.Subtask.ID)
}

func TestGraphWouldCycle(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g := selection.NewGraph([]types.TaskDependency{
		{TaskID: b, DependsOnTaskID: a},
		{TaskID: c, DependsOnTaskID: b},
	})

	assert.True(t, g.WouldCycle(a, c), "a depending on c would close the a->b->c->a cycle")
	assert.False(t, g.WouldCycle(a, uuid.New()))
}
