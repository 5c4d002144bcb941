package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// ManageSubtask implements manage_subtask: create | update | get | list |
// complete | delete.
func (f *Facade) ManageSubtask(ctx context.Context, userID, action string, params map[string]any) *Response {
	s := f.scope(userID)

	switch action {
	case "create":
		return f.subtaskCreate(ctx, s, userID, params)
	case "update":
		return f.subtaskUpdate(ctx, s, params)
	case "get":
		return f.subtaskGet(ctx, params)
	case "list":
		return f.subtaskList(ctx, s, params)
	case "complete":
		return f.subtaskComplete(ctx, s, params)
	case "delete":
		return f.subtaskDelete(ctx, params)
	default:
		return fail("manage_subtask", orcherrors.UnknownActionErr(action))
	}
}

func (f *Facade) subtaskCreate(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	taskID, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_subtask.create", err)
	}
	title, err := requireString(params, "title")
	if err != nil {
		return fail("manage_subtask.create", err)
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return fail("manage_subtask.create", err)
	}
	priority, err := requirePriority(params, "priority", types.PriorityMedium)
	if err != nil {
		return fail("manage_subtask.create", err)
	}

	now := time.Now()
	sub := &types.Subtask{
		ID:          uuid.New(),
		TaskID:      taskID,
		Title:       title,
		Description: optionalString(params, "description"),
		Status:      types.StatusTodo,
		Priority:    priority,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if assignees, err := optionalUUIDSlice(params, "assignees"); err != nil {
		return fail("manage_subtask.create", err)
	} else {
		sub.Assignees = assignees
	}

	if err := f.subtasks.Save(ctx, sub); err != nil {
		return fail("manage_subtask.create", err)
	}
	f.emit(ctx, "SubtaskCreated", sub.ID.String(), "Subtask", map[string]any{"task_id": taskID.String()})
	return ok(sub)
}

func (f *Facade) subtaskGet(ctx context.Context, params map[string]any) *Response {
	id, err := requireUUID(params, "subtask_id")
	if err != nil {
		return fail("manage_subtask.get", err)
	}
	sub, err := f.subtasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_subtask.get", err)
	}
	return ok(sub)
}

func (f *Facade) subtaskList(ctx context.Context, s scoped, params map[string]any) *Response {
	taskID, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_subtask.list", err)
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return fail("manage_subtask.list", err)
	}
	subs, err := f.subtasks.FindByTask(ctx, taskID)
	if err != nil {
		return fail("manage_subtask.list", err)
	}
	return ok(subs)
}

func (f *Facade) subtaskUpdate(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "subtask_id")
	if err != nil {
		return fail("manage_subtask.update", err)
	}
	sub, err := f.subtasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_subtask.update", err)
	}
	if _, err := s.tasks.FindByID(ctx, sub.TaskID); err != nil {
		return fail("manage_subtask.update", err)
	}

	if v := optionalString(params, "title"); v != "" {
		sub.Title = v
	}
	if v, ok := params["description"]; ok {
		sub.Description, _ = v.(string)
	}
	if v, ok := optionalFloat(params, "progress_percentage"); ok {
		sub.ProgressPercentage = v
	}
	if v := optionalString(params, "progress_notes"); v != "" {
		sub.ProgressNotes = v
	}
	if v := optionalString(params, "blockers"); v != "" {
		sub.Blockers = v
	}
	if v := optionalString(params, "status"); v != "" {
		to := types.Status(v)
		if !to.Valid() {
			return fail("manage_subtask.update", orcherrors.ValidationErr("status is not recognized"))
		}
		if err := f.machine.ValidateSubtaskTransition(sub, to); err != nil {
			return fail("manage_subtask.update", err)
		}
		sub.Status = to
	}

	sub.UpdatedAt = time.Now()
	if err := f.subtasks.Save(ctx, sub); err != nil {
		return fail("manage_subtask.update", err)
	}
	f.emit(ctx, "SubtaskUpdated", id.String(), "Subtask", map[string]any{"status": string(sub.Status)})
	return ok(sub)
}

func (f *Facade) subtaskComplete(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "subtask_id")
	if err != nil {
		return fail("manage_subtask.complete", err)
	}
	summary, err := requireString(params, "completion_summary")
	if err != nil {
		return fail("manage_subtask.complete", err)
	}
	sub, err := f.subtasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_subtask.complete", err)
	}
	if _, err := s.tasks.FindByID(ctx, sub.TaskID); err != nil {
		return fail("manage_subtask.complete", err)
	}

	sub.CompletionSummary = summary
	if v := optionalString(params, "impact_on_parent"); v != "" {
		sub.ImpactOnParent = v
	}
	if err := f.machine.ValidateSubtaskTransition(sub, types.StatusDone); err != nil {
		return fail("manage_subtask.complete", err)
	}
	sub.Status = types.StatusDone
	sub.ProgressPercentage = 100
	sub.UpdatedAt = time.Now()

	if err := f.subtasks.Save(ctx, sub); err != nil {
		return fail("manage_subtask.complete", err)
	}

	f.rollupParentProgress(ctx, sub.TaskID)
	f.emit(ctx, "SubtaskCompleted", id.String(), "Subtask", map[string]any{"task_id": sub.TaskID.String()})
	return ok(sub)
}

func (f *Facade) subtaskDelete(ctx context.Context, params map[string]any) *Response {
	id, err := requireUUID(params, "subtask_id")
	if err != nil {
		return fail("manage_subtask.delete", err)
	}
	sub, err := f.subtasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_subtask.delete", err)
	}
	if err := f.subtasks.Delete(ctx, id); err != nil {
		return fail("manage_subtask.delete", err)
	}
	f.rollupParentProgress(ctx, sub.TaskID)
	f.emit(ctx, "SubtaskDeleted", id.String(), "Subtask", nil)
	return ok(map[string]any{"deleted": true})
}

// rollupParentProgress recomputes the parent task's progress_percentage
// per the §4.3 rollup (internal/types.ComputeProgress) after a subtask
// changes. Best-effort: a failure here does not fail the subtask
// operation that triggered it.
func (f *Facade) rollupParentProgress(ctx context.Context, taskID uuid.UUID) {
	task, err := f.tasks.FindByID(ctx, taskID)
	if err != nil {
		return
	}
	subs, err := f.subtasks.FindByTask(ctx, taskID)
	if err != nil {
		return
	}
	task.ProgressPercentage = types.ComputeProgress(subs)
	task.UpdatedAt = time.Now()
	_ = f.tasks.Save(ctx, task)
}
