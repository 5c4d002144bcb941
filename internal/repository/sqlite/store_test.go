package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/denkhaus/conductor/internal/types"
)

// setupTestStore creates a Store backed by a temporary on-disk database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(
		WithDatabasePath(filepath.Join(dir, "test.db")),
		WithAutoMigrate(true),
		WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenInMemory(t *testing.T) {
	store, err := Open(WithLogger(zap.NewNop()), WithAutoMigrate(true))
	require.NoError(t, err)
	defer store.Close()
	assert.NotNil(t, store.DB())
}

func TestProjectLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	projects := store.Projects()

	p := &types.Project{
		ID:        uuid.New(),
		Name:      "Orchestrator",
		UserID:    "tester",
		Status:    types.ProjectStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, projects.Save(ctx, p))

	found, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, found.Name)

	byName, err := projects.FindByName(ctx, "tester", "Orchestrator")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	all, err := projects.FindAll(ctx, "tester")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, projects.Delete(ctx, p.ID))
	_, err = projects.FindByID(ctx, p.ID)
	assert.Error(t, err)
}

func TestTaskSaveWithVersionDetectsConflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	project := &types.Project{ID: uuid.New(), Name: "P", UserID: "tester", Status: types.ProjectStatusActive, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Projects().Save(ctx, project))

	branch := &types.Branch{ID: uuid.New(), ProjectID: project.ID, Name: "main", Status: types.BranchStatusActive, UserID: "tester"}
	require.NoError(t, store.Branches().Save(ctx, branch))

	task := &types.Task{
		ID:        uuid.New(),
		BranchID:  branch.ID,
		Title:     "Do the thing",
		Status:    types.StatusTodo,
		Priority:  types.PriorityMedium,
		UserID:    "tester",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Version:   0,
	}
	require.NoError(t, store.Tasks().Save(ctx, task))

	loaded, err := store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)

	loaded.Status = types.StatusInProgress
	require.NoError(t, store.Tasks().SaveWithVersion(ctx, loaded, loaded.Version))

	// Replaying the stale version must fail: it still carries the version
	// read before the update above landed.
	stale := *task
	stale.Status = types.StatusDone
	err = store.Tasks().SaveWithVersion(ctx, &stale, task.Version)
	assert.Error(t, err)
}

func TestBranchDeleteByProjectCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	project := &types.Project{ID: uuid.New(), Name: "P", UserID: "tester", Status: types.ProjectStatusActive, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Projects().Save(ctx, project))

	for i := 0; i < 3; i++ {
		b := &types.Branch{ID: uuid.New(), ProjectID: project.ID, Name: uuid.NewString(), Status: types.BranchStatusActive, UserID: "tester"}
		require.NoError(t, store.Branches().Save(ctx, b))
	}

	require.NoError(t, store.Branches().DeleteByProject(ctx, project.ID))

	remaining, err := store.Branches().FindAll(ctx, "tester", &project.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDependencyRepositoryRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	project := &types.Project{ID: uuid.New(), Name: "P", UserID: "tester", Status: types.ProjectStatusActive, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Projects().Save(ctx, project))
	branch := &types.Branch{ID: uuid.New(), ProjectID: project.ID, Name: "main", Status: types.BranchStatusActive, UserID: "tester"}
	require.NoError(t, store.Branches().Save(ctx, branch))

	t1 := &types.Task{ID: uuid.New(), BranchID: branch.ID, Title: "A", Status: types.StatusTodo, Priority: types.PriorityMedium, UserID: "tester", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	t2 := &types.Task{ID: uuid.New(), BranchID: branch.ID, Title: "B", Status: types.StatusTodo, Priority: types.PriorityMedium, UserID: "tester", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Tasks().Save(ctx, t1))
	require.NoError(t, store.Tasks().Save(ctx, t2))

	require.NoError(t, store.Dependencies().Add(ctx, t2.ID, t1.ID, "tester"))

	deps, err := store.Dependencies().DependenciesOf(ctx, t2.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, t1.ID, deps[0].DependsOnTaskID)

	dependents, err := store.Dependencies().DependentsOf(ctx, t1.ID)
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, t2.ID, dependents[0].TaskID)

	require.NoError(t, store.Dependencies().Remove(ctx, t2.ID, t1.ID))
	deps, err = store.Dependencies().DependenciesOf(ctx, t2.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}
