package types

import (
	"context"

	"github.com/google/uuid"
)

// TaskFilter narrows ListTasks / the next-task selector's candidate set.
type TaskFilter struct {
	Assignee  *uuid.UUID
	ProjectID *uuid.UUID
	BranchID  *uuid.UUID
	Labels    []string
	Status    *Status
}

// ProjectRepository persists Projects. find_by_id/find_all/save/delete are
// the spec.md §4.2 operation names; UserID-scoping is applied by the
// tenancy package, not by implementations of this interface.
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindAll(ctx context.Context, userID string) ([]*Project, error)
	Save(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByName(ctx context.Context, userID, name string) (*Project, error)
}

// BranchRepository persists Branches.
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FindAll(ctx context.Context, userID string, projectID *uuid.UUID) ([]*Branch, error)
	Save(ctx context.Context, b *Branch) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByName(ctx context.Context, userID string, projectID uuid.UUID, name string) (*Branch, error)
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}

// TaskRepository persists Tasks. It has no composite completion
// operation: a completion is one SaveWithVersion call, and the task
// context and the event are not written in the same transaction.
type TaskRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindAll(ctx context.Context, userID string, filter TaskFilter) ([]*Task, error)
	Save(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uuid.UUID) error

	// SaveWithVersion performs an optimistic-concurrency save: the write
	// only succeeds if the stored row's version matches expectedVersion;
	// otherwise it returns an error the caller maps to CONCURRENT_MODIFICATION.
	SaveWithVersion(ctx context.Context, t *Task, expectedVersion int) error
}

// SubtaskRepository persists Subtasks.
type SubtaskRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subtask, error)
	FindByTask(ctx context.Context, taskID uuid.UUID) ([]*Subtask, error)
	Save(ctx context.Context, s *Subtask) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DependencyRepository persists TaskDependency edges.
type DependencyRepository interface {
	Add(ctx context.Context, taskID, dependsOnTaskID uuid.UUID, userID string) error
	Remove(ctx context.Context, taskID, dependsOnTaskID uuid.UUID) error
	DependenciesOf(ctx context.Context, taskID uuid.UUID) ([]TaskDependency, error)
	DependentsOf(ctx context.Context, taskID uuid.UUID) ([]TaskDependency, error)
	AllForUser(ctx context.Context, userID string) ([]TaskDependency, error)
	DeleteForTask(ctx context.Context, taskID uuid.UUID) error
}

// AgentRepository persists Agents.
type AgentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindAll(ctx context.Context, userID string, projectID *uuid.UUID) ([]*Agent, error)
	Save(ctx context.Context, a *Agent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenRepository persists APITokens. Tokens are immutable except for
// usage_count, last_used_at, and is_active.
type TokenRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*APIToken, error)
	FindByHash(ctx context.Context, tokenHash string) (*APIToken, error)
	FindAll(ctx context.Context, userID string) ([]*APIToken, error)
	Save(ctx context.Context, t *APIToken) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecordUsage(ctx context.Context, id uuid.UUID) error
}

// ContextRepository persists the four context levels. FindGlobal returns
// only the row whose user id equals userID; global rows with an empty
// user id are not included. Project, branch, and task lookups are by id
// alone, and saves store the UserID carried on the value.
type ContextRepository interface {
	FindGlobal(ctx context.Context, userID string) (*GlobalContext, error)
	SaveGlobal(ctx context.Context, g *GlobalContext) error

	FindProject(ctx context.Context, projectID uuid.UUID) (*ProjectContext, error)
	SaveProject(ctx context.Context, p *ProjectContext) error
	DeleteProject(ctx context.Context, projectID uuid.UUID) error

	FindBranch(ctx context.Context, branchID uuid.UUID) (*BranchContext, error)
	SaveBranch(ctx context.Context, b *BranchContext) error
	DeleteBranch(ctx context.Context, branchID uuid.UUID) error

	FindTask(ctx context.Context, taskID uuid.UUID) (*TaskContext, error)
	SaveTask(ctx context.Context, t *TaskContext) error
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	SaveDelegation(ctx context.Context, d *ContextDelegation) error
	FindDelegation(ctx context.Context, id uuid.UUID) (*ContextDelegation, error)
	PendingDelegations(ctx context.Context, userID string, level ContextLevel, id uuid.UUID) ([]*ContextDelegation, error)
}

// CacheRepository persists ContextInheritanceCache entries. An in-memory
// implementation (context.Cache) is the primary consumer; a durable
// implementation is optional and not required by any testable property.
type CacheRepository interface {
	Get(ctx context.Context, userID string, level ContextLevel, contextID uuid.UUID) (*ContextInheritanceCache, bool)
	Put(ctx context.Context, entry *ContextInheritanceCache) error
	Invalidate(ctx context.Context, userID string, level ContextLevel, contextID uuid.UUID, reason string) error
	InvalidateDescendants(ctx context.Context, userID string, level ContextLevel, id uuid.UUID) error
	Sweep(ctx context.Context) (removed int, err error)
	Size(ctx context.Context) (int, error)
	EvictLowValue(ctx context.Context, max int) (evicted int, err error)
}

// EventStore is the append-only audit log (§4.8).
type EventStore interface {
	Append(ctx context.Context, event *Event) (string, error)
	Get(ctx context.Context, filter EventFilter) ([]*Event, error)
	GetAggregate(ctx context.Context, aggregateID string, fromVersion int) ([]*Event, error)
	Snapshot(ctx context.Context, aggregateID, aggregateType string, data map[string]any, version int) (string, error)
	LatestSnapshot(ctx context.Context, aggregateID string) (*Event, error)
	Clear(ctx context.Context) error
}
