// Package tenancy wraps the per-aggregate repositories in
// internal/types with a single-level decorator that stamps and checks
// UserID on every operation, following the single-level
// repository-wrapping style of internal/repository/sqlite applied
// to the multi-tenant isolation rule of spec.md §4.2: a user may only
// read or write rows it owns, cross-tenant access returns
// CROSS_TENANT_WRITE rather than NOT_FOUND leaking existence.
package tenancy

import (
	"context"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// Projects scopes a ProjectRepository to userID.
type Projects struct {
	inner  types.ProjectRepository
	userID string
}

func ScopeProjects(inner types.ProjectRepository, userID string) *Projects {
	return &Projects{inner: inner, userID: userID}
}

func (p *Projects) FindByID(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	proj, err := p.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if proj.UserID != p.userID {
		return nil, orcherrors.CrossTenantWriteErr("project", id.String())
	}
	return proj, nil
}

func (p *Projects) FindAll(ctx context.Context) ([]*types.Project, error) {
	return p.inner.FindAll(ctx, p.userID)
}

func (p *Projects) FindByName(ctx context.Context, name string) (*types.Project, error) {
	return p.inner.FindByName(ctx, p.userID, name)
}

func (p *Projects) Save(ctx context.Context, proj *types.Project) error {
	proj.UserID = p.userID
	return p.inner.Save(ctx, proj)
}

func (p *Projects) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := p.FindByID(ctx, id); err != nil {
		return err
	}
	return p.inner.Delete(ctx, id)
}

// Branches scopes a BranchRepository to userID.
type Branches struct {
	inner  types.BranchRepository
	userID string
}

func ScopeBranches(inner types.BranchRepository, userID string) *Branches {
	return &Branches{inner: inner, userID: userID}
}

func (b *Branches) FindByID(ctx context.Context, id uuid.UUID) (*types.Branch, error) {
	br, err := b.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if br.UserID != b.userID {
		return nil, orcherrors.CrossTenantWriteErr("branch", id.String())
	}
	return br, nil
}

func (b *Branches) FindAll(ctx context.Context, projectID *uuid.UUID) ([]*types.Branch, error) {
	return b.inner.FindAll(ctx, b.userID, projectID)
}

func (b *Branches) FindByName(ctx context.Context, projectID uuid.UUID, name string) (*types.Branch, error) {
	return b.inner.FindByName(ctx, b.userID, projectID, name)
}

func (b *Branches) Save(ctx context.Context, br *types.Branch) error {
	br.UserID = b.userID
	return b.inner.Save(ctx, br)
}

func (b *Branches) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := b.FindByID(ctx, id); err != nil {
		return err
	}
	return b.inner.Delete(ctx, id)
}

// Tasks scopes a TaskRepository to userID.
type Tasks struct {
	inner  types.TaskRepository
	userID string
}

func ScopeTasks(inner types.TaskRepository, userID string) *Tasks {
	return &Tasks{inner: inner, userID: userID}
}

func (t *Tasks) FindByID(ctx context.Context, id uuid.UUID) (*types.Task, error) {
	task, err := t.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != t.userID {
		return nil, orcherrors.CrossTenantWriteErr("task", id.String())
	}
	return task, nil
}

func (t *Tasks) FindAll(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error) {
	return t.inner.FindAll(ctx, t.userID, filter)
}

func (t *Tasks) Save(ctx context.Context, task *types.Task) error {
	task.UserID = t.userID
	return t.inner.Save(ctx, task)
}

func (t *Tasks) SaveWithVersion(ctx context.Context, task *types.Task, expectedVersion int) error {
	task.UserID = t.userID
	return t.inner.SaveWithVersion(ctx, task, expectedVersion)
}

func (t *Tasks) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := t.FindByID(ctx, id); err != nil {
		return err
	}
	return t.inner.Delete(ctx, id)
}

// Agents scopes an AgentRepository to userID.
type Agents struct {
	inner  types.AgentRepository
	userID string
}

func ScopeAgents(inner types.AgentRepository, userID string) *Agents {
	return &Agents{inner: inner, userID: userID}
}

func (a *Agents) FindByID(ctx context.Context, id uuid.UUID) (*types.Agent, error) {
	agent, err := a.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent.UserID != a.userID {
		return nil, orcherrors.CrossTenantWriteErr("agent", id.String())
	}
	return agent, nil
}

func (a *Agents) FindAll(ctx context.Context, projectID *uuid.UUID) ([]*types.Agent, error) {
	return a.inner.FindAll(ctx, a.userID, projectID)
}

func (a *Agents) Save(ctx context.Context, agent *types.Agent) error {
	agent.UserID = a.userID
	return a.inner.Save(ctx, agent)
}

func (a *Agents) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := a.FindByID(ctx, id); err != nil {
		return err
	}
	return a.inner.Delete(ctx, id)
}

// Tokens scopes a TokenRepository to userID. Token lookup by hash
// (used during authentication, before a user id is known) is NOT
// scoped and must go directly through the unwrapped repository.
type Tokens struct {
	inner  types.TokenRepository
	userID string
}

func ScopeTokens(inner types.TokenRepository, userID string) *Tokens {
	return &Tokens{inner: inner, userID: userID}
}

func (t *Tokens) FindByID(ctx context.Context, id uuid.UUID) (*types.APIToken, error) {
	tok, err := t.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tok.UserID != t.userID {
		return nil, orcherrors.CrossTenantWriteErr("token", id.String())
	}
	return tok, nil
}

func (t *Tokens) FindAll(ctx context.Context) ([]*types.APIToken, error) {
	return t.inner.FindAll(ctx, t.userID)
}

func (t *Tokens) Save(ctx context.Context, tok *types.APIToken) error {
	tok.UserID = t.userID
	return t.inner.Save(ctx, tok)
}

func (t *Tokens) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := t.FindByID(ctx, id); err != nil {
		return err
	}
	return t.inner.Delete(ctx, id)
}
