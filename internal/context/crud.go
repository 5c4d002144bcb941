package context

import (
	"context"
	"time"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// Create materializes a new context document at level for id. The global
// level is rejected (one global document per user is auto-materialized
// instead); a project context is always parented on the user's global
// context and ignores parentID; branch and task contexts require parentID.
func (e *Engine) Create(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID, data map[string]any, parentID *uuid.UUID) error {
	if data == nil {
		data = map[string]any{}
	}
	switch level {
	case types.LevelGlobal:
		return orcherrors.ValidationErr("global context is auto-materialized, not created explicitly")

	case types.LevelProject:
		g, err := e.findOrCreateGlobal(ctx, userID)
		if err != nil {
			return err
		}
		return e.contexts.SaveProject(ctx, &types.ProjectContext{
			ID: uuid.New(), ProjectID: id, ParentGlobalID: g.ID, Data: data, UserID: userID, Version: 1,
		})

	case types.LevelBranch:
		if parentID == nil {
			return orcherrors.MissingFieldErr("parent_project_id", "uuid", "branch context requires its owning project id")
		}
		return e.contexts.SaveBranch(ctx, &types.BranchContext{
			ID: uuid.New(), BranchID: id, ParentProjectID: *parentID, Data: data, UserID: userID, Version: 1,
		})

	case types.LevelTask:
		if parentID == nil {
			return orcherrors.MissingFieldErr("parent_branch_id", "uuid", "task context requires its owning branch id")
		}
		return e.contexts.SaveTask(ctx, &types.TaskContext{
			ID: uuid.New(), TaskID: id, ParentBranchID: *parentID, Data: data, UserID: userID, Version: 1,
		})

	default:
		return orcherrors.ValidationErr("unknown context level")
	}
}

// Update merges patch onto the document's own data using the §4.5 per-key
// rule, bumps its version, and invalidates every cached resolution that
// depends on it.
func (e *Engine) Update(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID, patch map[string]any) error {
	switch level {
	case types.LevelGlobal:
		g, err := e.findOrCreateGlobal(ctx, userID)
		if err != nil {
			return err
		}
		g.Data = mergeDocs(nonNil(g.Data), patch)
		g.Version++
		if err := e.contexts.SaveGlobal(ctx, g); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "save global context", err)
		}

	case types.LevelProject:
		p, err := e.contexts.FindProject(ctx, id)
		if err != nil {
			return orcherrors.NotFoundErr("project_context", id.String())
		}
		p.Data = mergeDocs(nonNil(p.Data), patch)
		p.Version++
		if err := e.contexts.SaveProject(ctx, p); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "save project context", err)
		}

	case types.LevelBranch:
		b, err := e.contexts.FindBranch(ctx, id)
		if err != nil {
			return orcherrors.NotFoundErr("branch_context", id.String())
		}
		b.Data = mergeDocs(nonNil(b.Data), patch)
		b.Version++
		if err := e.contexts.SaveBranch(ctx, b); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "save branch context", err)
		}

	case types.LevelTask:
		t, err := e.contexts.FindTask(ctx, id)
		if err != nil {
			return orcherrors.NotFoundErr("task_context", id.String())
		}
		t.Data = mergeDocs(nonNil(t.Data), patch)
		t.Version++
		if err := e.contexts.SaveTask(ctx, t); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "save task context", err)
		}

	default:
		return orcherrors.ValidationErr("unknown context level")
	}

	_ = e.cache.Invalidate(ctx, userID, level, id, "updated")
	_ = e.cache.InvalidateDescendants(ctx, userID, level, id)
	return nil
}

// Delete removes the document at level for id and cascades to every
// descendant context beneath it, mirroring the entity cascade already
// implemented by internal/repository/sqlite (project -> branches -> tasks).
func (e *Engine) Delete(ctx context.Context, userID string, level types.ContextLevel, id uuid.UUID) error {
	switch level {
	case types.LevelGlobal:
		return orcherrors.ValidationErr("global context cannot be deleted")

	case types.LevelProject:
		branches, err := e.branches.FindAll(ctx, userID, &id)
		if err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "list branches for project context delete", err)
		}
		for _, b := range branches {
			if err := e.deleteBranchContext(ctx, userID, b.ID); err != nil {
				return err
			}
		}
		if err := e.contexts.DeleteProject(ctx, id); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "delete project context", err)
		}

	case types.LevelBranch:
		if err := e.deleteBranchContext(ctx, userID, id); err != nil {
			return err
		}

	case types.LevelTask:
		if err := e.contexts.DeleteTask(ctx, id); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "delete task context", err)
		}

	default:
		return orcherrors.ValidationErr("unknown context level")
	}

	_ = e.cache.Invalidate(ctx, userID, level, id, "deleted")
	_ = e.cache.InvalidateDescendants(ctx, userID, level, id)
	return nil
}

func (e *Engine) deleteBranchContext(ctx context.Context, userID string, branchID uuid.UUID) error {
	tasks, err := e.tasks.FindAll(ctx, userID, types.TaskFilter{BranchID: &branchID})
	if err != nil {
		return orcherrors.Wrap(orcherrors.InternalError, "list tasks for branch context delete", err)
	}
	for _, t := range tasks {
		if err := e.contexts.DeleteTask(ctx, t.ID); err != nil {
			return orcherrors.Wrap(orcherrors.InternalError, "delete task context", err)
		}
	}
	return e.contexts.DeleteBranch(ctx, branchID)
}

// Delegate records intent to promote data from a more specific level to a
// more general one, applying it immediately when ShouldAutoApply() holds
// (§4.5 "auto-apply threshold") and queuing it for manual approval
// otherwise.
func (e *Engine) Delegate(ctx context.Context, userID string, d *types.ContextDelegation) (*types.ContextDelegation, error) {
	if !d.TargetLevel.Below(d.SourceLevel) {
		return nil, orcherrors.ValidationErr("delegation target must be a more general level than its source")
	}

	d.ID = uuid.New()
	d.UserID = userID
	d.CreatedAt = time.Now()

	if d.ShouldAutoApply() {
		if err := e.Update(ctx, userID, d.TargetLevel, d.TargetID, d.DelegatedData); err != nil {
			return nil, err
		}
		d.AutoDelegated = true
		d.Processed = true
		approved := true
		d.Approved = &approved
		now := time.Now()
		d.ProcessedAt = &now
	}

	if err := e.contexts.SaveDelegation(ctx, d); err != nil {
		return nil, orcherrors.Wrap(orcherrors.InternalError, "save delegation", err)
	}
	return d, nil
}

// ApproveDelegation applies a previously-queued manual delegation.
func (e *Engine) ApproveDelegation(ctx context.Context, userID string, delegationID uuid.UUID) error {
	d, err := e.contexts.FindDelegation(ctx, delegationID)
	if err != nil {
		return orcherrors.NotFoundErr("context_delegation", delegationID.String())
	}
	if d.Processed {
		return orcherrors.ValidationErr("delegation already processed")
	}
	if err := e.Update(ctx, userID, d.TargetLevel, d.TargetID, d.DelegatedData); err != nil {
		return err
	}
	d.Processed = true
	approved := true
	d.Approved = &approved
	now := time.Now()
	d.ProcessedAt = &now
	return e.contexts.SaveDelegation(ctx, d)
}
