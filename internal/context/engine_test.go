package context_test

import (
	stdcontext "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxengine "github.com/denkhaus/conductor/internal/context"
	"github.com/denkhaus/conductor/internal/types"
)

// fakeContexts is a minimal in-memory types.ContextRepository for exercising
// the merge engine without a database.
type fakeContexts struct {
	globals  map[string]*types.GlobalContext
	projects map[uuid.UUID]*types.ProjectContext
	branches map[uuid.UUID]*types.BranchContext
	tasks    map[uuid.UUID]*types.TaskContext
}

func newFakeContexts() *fakeContexts {
	return &fakeContexts{
		globals:  map[string]*types.GlobalContext{},
		projects: map[uuid.UUID]*types.ProjectContext{},
		branches: map[uuid.UUID]*types.BranchContext{},
		tasks:    map[uuid.UUID]*types.TaskContext{},
	}
}

func (f *fakeContexts) FindGlobal(_ stdcontext.Context, userID string) (*types.GlobalContext, error) {
	g, ok := f.globals[userID]
	if !ok {
		return nil, assert.AnError
	}
	return g, nil
}
func (f *fakeContexts) SaveGlobal(_ stdcontext.Context, g *types.GlobalContext) error {
	f.globals[g.UserID] = g
	return nil
}
func (f *fakeContexts) FindProject(_ stdcontext.Context, id uuid.UUID) (*types.ProjectContext, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, assert.AnError
	}
	return p, nil
}
func (f *fakeContexts) SaveProject(_ stdcontext.Context, p *types.ProjectContext) error {
	f.projects[p.ProjectID] = p
	return nil
}
func (f *fakeContexts) DeleteProject(_ stdcontext.Context, id uuid.UUID) error {
	delete(f.projects, id)
	return nil
}
func (f *fakeContexts) FindBranch(_ stdcontext.Context, id uuid.UUID) (*types.BranchContext, error) {
	b, ok := f.branches[id]
	if !ok {
		return nil, assert.AnError
	}
	return b, nil
}
func (f *fakeContexts) SaveBranch(_ stdcontext.Context, b *types.BranchContext) error {
	f.branches[b.BranchID] = b
	return nil
}
func (f *fakeContexts) DeleteBranch(_ stdcontext.Context, id uuid.UUID) error {
	delete(f.branches, id)
	return nil
}
func (f *fakeContexts) FindTask(_ stdcontext.Context, id uuid.UUID) (*types.TaskContext, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, assert.AnError
	}
	return t, nil
}
func (f *fakeContexts) SaveTask(_ stdcontext.Context, t *types.TaskContext) error {
	f.tasks[t.TaskID] = t
	return nil
}
func (f *fakeContexts) DeleteTask(_ stdcontext.Context, id uuid.UUID) error {
	delete(f.tasks, id)
	return nil
}
func (f *fakeContexts) SaveDelegation(_ stdcontext.Context, *types.ContextDelegation) error {
	return nil
}
func (f *fakeContexts) FindDelegation(_ stdcontext.Context, uuid.UUID) (*types.ContextDelegation, error) {
	return nil, assert.AnError
}
func (f *fakeContexts) PendingDelegations(_ stdcontext.Context, string, types.ContextLevel, uuid.UUID) ([]*types.ContextDelegation, error) {
	return nil, nil
}

type fakeBranches struct{ all []*types.Branch }

func (f *fakeBranches) FindByID(stdcontext.Context, uuid.UUID) (*types.Branch, error) { return nil, assert.AnError }
func (f *fakeBranches) FindAll(_ stdcontext.Context, _ string, projectID *uuid.UUID) ([]*types.Branch, error) {
	if projectID == nil {
		return f.all, nil
	}
	var out []*types.Branch
	for _, b := range f.all {
		if b.ProjectID == *projectID {
			out = append(out, b)
		}
	}
	return out, nil
}
func (f *fakeBranches) Save(stdcontext.Context, *types.Branch) error           { return nil }
func (f *fakeBranches) Delete(stdcontext.Context, uuid.UUID) error            { return nil }
func (f *fakeBranches) FindByName(stdcontext.Context, string, uuid.UUID, string) (*types.Branch, error) {
	return nil, assert.AnError
}
func (f *fakeBranches) DeleteByProject(stdcontext.Context, uuid.UUID) error { return nil }

type fakeTasks struct{ all []*types.Task }

func (f *fakeTasks) FindByID(stdcontext.Context, uuid.UUID) (*types.Task, error) { return nil, assert.AnError }
func (f *fakeTasks) FindAll(_ stdcontext.Context, _ string, filter types.TaskFilter) ([]*types.Task, error) {
	if filter.BranchID == nil {
		return f.all, nil
	}
	var out []*types.Task
	for _, t := range f.all {
		if t.BranchID == *filter.BranchID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (f *fakeTasks) Save(stdcontext.Context, *types.Task) error { return nil }
func (f *fakeTasks) Delete(stdcontext.Context, uuid.UUID) error { return nil }
func (f *fakeTasks) SaveWithVersion(stdcontext.Context, *types.Task, int) error { return nil }

func newEngine() (*ctxengine.Engine, *fakeContexts) {
	c := newFakeContexts()
	cache := ctxengine.NewCache(0)
	return ctxengine.New(c, nil, &fakeBranches{}, &fakeTasks{}, cache), c
}

func TestResolveAutoMaterializesGlobal(t *testing.T) {
	engine, _ := newEngine()
	rc, err := engine.Resolve(stdcontext.Background(), "alice", types.LevelGlobal, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.InheritanceDepth)
}

func TestResolveMergesChainPerKey(t *testing.T) {
	engine, store := newEngine()
	ctx := stdcontext.Background()

	g, err := storeGlobal(ctx, engine, store, "alice", map[string]any{
		"coding_standards": map[string]any{"lang": "go", "lint": "golangci-lint"},
		"tags":             []any{"core"},
	})
	require.NoError(t, err)

	projectID := uuid.New()
	require.NoError(t, engine.Create(ctx, "alice", types.LevelProject, projectID, map[string]any{
		"coding_standards": map[string]any{"lint": "staticcheck"},
		"tags":             []any{"billing"},
	}, nil))
	_ = g

	rc, err := engine.Resolve(ctx, "alice", types.LevelProject, projectID)
	require.NoError(t, err)

	standards := rc.Data["coding_standards"].(map[string]any)
	assert.Equal(t, "go", standards["lang"], "parent-only key survives the merge")
	assert.Equal(t, "staticcheck", standards["lint"], "child overrides a scalar shared with its parent")
	assert.ElementsMatch(t, []any{"core", "billing"}, rc.Data["tags"], "lists concatenate across levels")
	assert.Equal(t, 2, rc.InheritanceDepth)
}

func TestResolveStopsAtInheritanceDisabled(t *testing.T) {
	engine, store := newEngine()
	ctx := stdcontext.Background()

	_, err := storeGlobal(ctx, engine, store, "alice", map[string]any{"shared": "global-value"})
	require.NoError(t, err)

	projectID := uuid.New()
	require.NoError(t, engine.Create(ctx, "alice", types.LevelProject, projectID, map[string]any{"shared": "project-value"}, nil))
	p, err := store.FindProject(ctx, projectID)
	require.NoError(t, err)
	p.InheritanceDisabled = true
	require.NoError(t, store.SaveProject(ctx, p))

	rc, err := engine.Resolve(ctx, "alice", types.LevelProject, projectID)
	require.NoError(t, err)
	assert.Equal(t, "project-value", rc.Data["shared"])
	assert.Equal(t, 1, rc.InheritanceDepth, "global is excluded once the project disables inheritance")
}

func TestForceLocalOnlySkipsEntireChain(t *testing.T) {
	engine, store := newEngine()
	ctx := stdcontext.Background()

	branchID := uuid.New()
	require.NoError(t, store.SaveBranch(ctx, &types.BranchContext{ID: uuid.New(), BranchID: branchID, Data: map[string]any{"b": 1}}))

	taskID := uuid.New()
	require.NoError(t, store.SaveTask(ctx, &types.TaskContext{
		ID: uuid.New(), TaskID: taskID, ParentBranchID: branchID,
		Data: map[string]any{"local": true}, ForceLocalOnly: true,
	}))

	rc, err := engine.Resolve(ctx, "alice", types.LevelTask, taskID)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.InheritanceDepth)
	assert.Equal(t, true, rc.Data["local"])
	_, hasBranchKey := rc.Data["b"]
	assert.False(t, hasBranchKey)
}

func TestDelegateAutoAppliesAboveConfidenceThreshold(t *testing.T) {
	engine, store := newEngine()
	ctx := stdcontext.Background()

	projectID := uuid.New()
	require.NoError(t, store.SaveProject(ctx, &types.ProjectContext{ID: uuid.New(), ProjectID: projectID, Data: map[string]any{}}))
	branchID := uuid.New()
	require.NoError(t, store.SaveBranch(ctx, &types.BranchContext{ID: uuid.New(), BranchID: branchID, ParentProjectID: projectID, Data: map[string]any{}}))

	confidence := 0.9
	d := &types.ContextDelegation{
		SourceLevel:     types.LevelTask,
		TargetLevel:     types.LevelBranch,
		TargetID:        branchID,
		DelegatedData:   map[string]any{"pattern": "repo-per-aggregate"},
		TriggerType:     types.TriggerAutoPattern,
		ConfidenceScore: &confidence,
	}

	applied, err := engine.Delegate(ctx, "alice", d)
	require.NoError(t, err)
	assert.True(t, applied.Processed)

	rc, err := engine.Resolve(ctx, "alice", types.LevelBranch, branchID)
	require.NoError(t, err)
	assert.Equal(t, "repo-per-aggregate", rc.Data["pattern"])
}

func TestDelegateRejectsWrongDirection(t *testing.T) {
	engine, _ := newEngine()
	d := &types.ContextDelegation{
		SourceLevel: types.LevelBranch,
		TargetLevel: types.LevelTask,
		TargetID:    uuid.New(),
	}
	_, err := engine.Delegate(stdcontext.Background(), "alice", d)
	require.Error(t, err)
}

func storeGlobal(ctx stdcontext.Context, _ *ctxengine.Engine, store *fakeContexts, userID string, data map[string]any) (*types.GlobalContext, error) {
	g := &types.GlobalContext{ID: uuid.New(), UserID: userID, Data: data}
	return g, store.SaveGlobal(ctx, g)
}
