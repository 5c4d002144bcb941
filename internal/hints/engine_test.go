package hints_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denkhaus/conductor/internal/hints"
	"github.com/denkhaus/conductor/internal/types"
)

type fakeEvents struct {
	mu     sync.Mutex
	events []*types.Event
}

func (f *fakeEvents) Append(_ context.Context, e *types.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return e.EventID, nil
}
func (f *fakeEvents) Get(context.Context, types.EventFilter) ([]*types.Event, error) { return f.events, nil }
func (f *fakeEvents) GetAggregate(context.Context, string, int) ([]*types.Event, error) {
	return nil, nil
}
func (f *fakeEvents) Snapshot(context.Context, string, string, map[string]any, int) (string, error) {
	return "", nil
}
func (f *fakeEvents) LatestSnapshot(context.Context, string) (*types.Event, error) { return nil, nil }
func (f *fakeEvents) Clear(context.Context) error                                  { return nil }

func TestGenerateEmitsStalledProgressHint(t *testing.T) {
	events := &fakeEvents{}
	engine := hints.New(events)
	now := time.Now()
	task := &types.Task{ID: uuid.New(), Status: types.StatusInProgress, UpdatedAt: now.Add(-72 * time.Hour)}

	result, err := engine.Generate(context.Background(), hints.RuleContext{Task: task, Now: now}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result)

	var found bool
	for _, h := range result {
		if h.RuleName == "stalled_progress" {
			found = true
			assert.Equal(t, types.ImpactHigh, h.Impact)
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, events.events, "Generate must emit a HintGenerated event per hint")
}

func TestGenerateFiltersByType(t *testing.T) {
	engine := hints.New(&fakeEvents{})
	now := time.Now()
	task := &types.Task{ID: uuid.New(), Status: types.StatusInProgress, ProgressPercentage: 95, UpdatedAt: now}

	result, err := engine.Generate(context.Background(), hints.RuleContext{Task: task, Now: now}, []types.HintType{types.HintBlocker})
	require.NoError(t, err)
	for _, h := range result {
		assert.Equal(t, types.HintBlocker, h.Type)
	}
}

func TestAcceptPushesEffectivenessTowardOne(t *testing.T) {
	events := &fakeEvents{}
	engine := hints.New(events)
	now := time.Now()
	task := &types.Task{ID: uuid.New(), Status: types.StatusInProgress, ProgressPercentage: 95, UpdatedAt: now}

	result, err := engine.Generate(context.Background(), hints.RuleContext{Task: task, Now: now}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result)

	before := result[0].EffectivenessScore
	require.NoError(t, engine.Accept(context.Background(), result[0].ID))

	again, err := engine.Generate(context.Background(), hints.RuleContext{Task: task, Now: now}, nil)
	require.NoError(t, err)
	var after float64
	for _, h := range again {
		if h.ID == result[0].ID || h.RuleName == result[0].RuleName {
			after = h.EffectivenessScore
		}
	}
	assert.Greater(t, after, before)
}

func TestComplexDependencyRuleRequiresThreeUnsatisfied(t *testing.T) {
	engine := hints.New(&fakeEvents{})
	now := time.Now()
	task := &types.Task{ID: uuid.New(), Status: types.StatusTodo, UpdatedAt: now}
	related := []*types.Task{
		{Status: types.StatusTodo}, {Status: types.StatusInProgress}, {Status: types.StatusBlocked},
	}

	result, err := engine.Generate(context.Background(), hints.RuleContext{Task: task, RelatedTasks: related, Now: now}, nil)
	require.NoError(t, err)

	var found bool
	for _, h := range result {
		if h.RuleName == "complex_dependency" {
			found = true
		}
	}
	assert.True(t, found)
}
