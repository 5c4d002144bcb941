package orchestration

import (
	"context"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/auth"
	ctxengine "github.com/denkhaus/conductor/internal/context"
	"github.com/denkhaus/conductor/internal/hints"
	"github.com/denkhaus/conductor/internal/selection"
	"github.com/denkhaus/conductor/internal/statemachine"
	"github.com/denkhaus/conductor/internal/tenancy"
	"github.com/denkhaus/conductor/internal/types"
)

// Facade is the single entry point described by SPEC_FULL.md §4.9: six
// Manage* methods, each taking (ctx, userID, action, params) and returning
// the response envelope of spec.md §6. It holds the root (tenant-unaware)
// repositories and wraps them per-call in internal/tenancy decorators
// scoped to the caller's userID.
type Facade struct {
	projects  types.ProjectRepository
	branches  types.BranchRepository
	tasks     types.TaskRepository
	subtasks  types.SubtaskRepository
	deps      types.DependencyRepository
	agents    types.AgentRepository
	tokens    types.TokenRepository
	contexts  types.ContextRepository
	events    types.EventStore

	validator *auth.Validator
	machine   *statemachine.Machine
	ctxEngine *ctxengine.Engine
	hintsEng  *hints.Engine
}

// Dependencies bundles the root repositories and component engines New
// wires into a Facade, grouped so the constructor call site stays readable
// as the component count grows.
type Dependencies struct {
	Projects     types.ProjectRepository
	Branches     types.BranchRepository
	Tasks        types.TaskRepository
	Subtasks     types.SubtaskRepository
	TaskDependencies types.DependencyRepository
	Agents       types.AgentRepository
	Tokens       types.TokenRepository
	Contexts     types.ContextRepository
	Events       types.EventStore

	Validator     *auth.Validator
	Machine       *statemachine.Machine
	ContextEngine *ctxengine.Engine
	Hints         *hints.Engine
}

func New(d Dependencies) *Facade {
	return &Facade{
		projects:  d.Projects,
		branches:  d.Branches,
		tasks:     d.Tasks,
		subtasks:  d.Subtasks,
		deps:      d.TaskDependencies,
		agents:    d.Agents,
		tokens:    d.Tokens,
		contexts:  d.Contexts,
		events:    d.Events,
		validator: d.Validator,
		machine:   d.Machine,
		ctxEngine: d.ContextEngine,
		hintsEng:  d.Hints,
	}
}

// scoped holds the tenancy decorators for one call; built fresh per
// request since it is just cheap wrapping of the shared root repositories.
type scoped struct {
	projects *tenancy.Projects
	branches *tenancy.Branches
	tasks    *tenancy.Tasks
	agents   *tenancy.Agents
	tokens   *tenancy.Tokens
}

func (f *Facade) scope(userID string) scoped {
	return scoped{
		projects: tenancy.ScopeProjects(f.projects, userID),
		branches: tenancy.ScopeBranches(f.branches, userID),
		tasks:    tenancy.ScopeTasks(f.tasks, userID),
		agents:   tenancy.ScopeAgents(f.agents, userID),
		tokens:   tenancy.ScopeTokens(f.tokens, userID),
	}
}

func (f *Facade) emit(ctx context.Context, eventType, aggregateID, aggregateType string, data map[string]any) {
	_, _ = f.events.Append(ctx, &types.Event{
		EventType:     eventType,
		EventData:     data,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
	})
}

// readiness adapts the dependency graph for a user into the
// statemachine.Readiness function shape, without internal/statemachine
// importing internal/selection.
func (f *Facade) readiness(ctx context.Context, userID string) (statemachine.Readiness, error) {
	allDeps, err := f.deps.AllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	allTasks, err := f.tasks.FindAll(ctx, userID, types.TaskFilter{})
	if err != nil {
		return nil, err
	}
	statusByID := make(map[uuid.UUID]types.Status, len(allTasks))
	for _, t := range allTasks {
		statusByID[t.ID] = t.Status
	}
	graph := selection.NewGraph(allDeps)
	statusOf := func(id uuid.UUID) (types.Status, bool) {
		s, ok := statusByID[id]
		return s, ok
	}
	return func(taskID uuid.UUID) (bool, []uuid.UUID) {
		return graph.Readiness(taskID, statusOf)
	}, nil
}
