package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/selection"
	"github.com/denkhaus/conductor/internal/types"
)

// ManageTask implements manage_task: create | update | get | list | search |
// next | complete | delete | add_dependency | remove_dependency.
func (f *Facade) ManageTask(ctx context.Context, userID, action string, params map[string]any) *Response {
	s := f.scope(userID)

	switch action {
	case "create":
		return f.taskCreate(ctx, s, userID, params)
	case "update":
		return f.taskUpdate(ctx, s, userID, params)
	case "get":
		return f.taskGet(ctx, s, params)
	case "list", "search":
		return f.taskList(ctx, userID, params)
	case "next":
		return f.taskNext(ctx, userID, params)
	case "complete":
		return f.taskComplete(ctx, s, userID, params)
	case "delete":
		return f.taskDelete(ctx, s, params)
	case "add_dependency":
		return f.taskAddDependency(ctx, s, userID, params)
	case "remove_dependency":
		return f.taskRemoveDependency(ctx, s, params)
	default:
		return fail("manage_task", orcherrors.UnknownActionErr(action))
	}
}

func (f *Facade) taskCreate(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	branchID, err := requireUUID(params, "branch_id")
	if err != nil {
		return fail("manage_task.create", err)
	}
	title, err := requireString(params, "title")
	if err != nil {
		return fail("manage_task.create", err)
	}
	priority, err := requirePriority(params, "priority", types.PriorityMedium)
	if err != nil {
		return fail("manage_task.create", err)
	}
	if _, err := s.branches.FindByID(ctx, branchID); err != nil {
		return fail("manage_task.create", err)
	}

	now := time.Now()
	task := &types.Task{
		ID:          uuid.New(),
		BranchID:    branchID,
		Title:       title,
		Description: optionalString(params, "description"),
		Status:      types.StatusTodo,
		Priority:    priority,
		Details:     optionalString(params, "details"),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if labels := optionalStringSlice(params, "labels"); labels != nil {
		task.Labels = labels
	}
	if assignees, err := optionalUUIDSlice(params, "assignees"); err != nil {
		return fail("manage_task.create", err)
	} else {
		task.Assignees = assignees
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return fail("manage_task.create", err)
	}
	f.emit(ctx, "TaskCreated", task.ID.String(), "Task", map[string]any{"title": task.Title})
	return ok(task)
}

func (f *Facade) taskGet(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_task.get", err)
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_task.get", err)
	}
	if subs, err := f.subtasks.FindByTask(ctx, id); err == nil {
		task.Subtasks = subs
	}
	if deps, err := f.deps.DependenciesOf(ctx, id); err == nil {
		task.Dependencies = deps
	}
	return ok(task)
}

func (f *Facade) taskList(ctx context.Context, userID string, params map[string]any) *Response {
	filter := types.TaskFilter{}
	if pid, err := optionalUUID(params, "project_id"); err != nil {
		return fail("manage_task.list", err)
	} else {
		filter.ProjectID = pid
	}
	if bid, err := optionalUUID(params, "branch_id"); err != nil {
		return fail("manage_task.list", err)
	} else {
		filter.BranchID = bid
	}
	if assignee, err := optionalUUID(params, "assignee"); err != nil {
		return fail("manage_task.list", err)
	} else {
		filter.Assignee = assignee
	}
	filter.Labels = optionalStringSlice(params, "labels")
	if s := optionalString(params, "status"); s != "" {
		st := types.Status(s)
		filter.Status = &st
	}

	tasks, err := f.tasks.FindAll(ctx, userID, filter)
	if err != nil {
		return fail("manage_task.list", err)
	}
	return ok(tasks)
}

func (f *Facade) taskUpdate(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	id, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_task.update", err)
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_task.update", err)
	}
	expectedVersion := task.Version

	if v := optionalString(params, "title"); v != "" {
		task.Title = v
	}
	if v, ok := params["description"]; ok {
		task.Description, _ = v.(string)
	}
	if v := optionalString(params, "details"); v != "" {
		task.Details = v
	}
	if v := optionalString(params, "priority"); v != "" {
		p := types.Priority(v)
		if !p.Valid() {
			return fail("manage_task.update", orcherrors.ValidationErr("priority is not recognized"))
		}
		task.Priority = p
	}
	if v := optionalString(params, "estimated_effort"); v != "" {
		task.EstimatedEffort = v
	}
	if v, ok := optionalFloat(params, "progress_percentage"); ok {
		task.ProgressPercentage = v
	}

	if v := optionalString(params, "status"); v != "" {
		to := types.Status(v)
		if !to.Valid() {
			return fail("manage_task.update", orcherrors.ValidationErr("status is not recognized"))
		}
		ready, err := f.readiness(ctx, userID)
		if err != nil {
			return fail("manage_task.update", err)
		}
		if err := f.machine.ValidateTaskTransition(task, to, ready); err != nil {
			return fail("manage_task.update", err)
		}
		task.Status = to
		if to == types.StatusDone {
			now := time.Now()
			task.CompletedAt = &now
		}
	}

	task.UpdatedAt = time.Now()
	if err := s.tasks.SaveWithVersion(ctx, task, expectedVersion); err != nil {
		return fail("manage_task.update", orcherrors.ConcurrentModificationErr("task", id.String()))
	}
	f.emit(ctx, "TaskUpdated", id.String(), "Task", map[string]any{"status": string(task.Status)})
	return ok(task)
}

func (f *Facade) taskComplete(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	id, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_task.complete", err)
	}
	summary, err := requireString(params, "completion_summary")
	if err != nil {
		return fail("manage_task.complete", err)
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return fail("manage_task.complete", err)
	}
	expectedVersion := task.Version
	if subs, err := f.subtasks.FindByTask(ctx, id); err == nil {
		task.Subtasks = subs
	}

	task.CompletionSummary = summary
	if v := optionalString(params, "testing_notes"); v != "" {
		task.TestingNotes = v
	}

	ready, err := f.readiness(ctx, userID)
	if err != nil {
		return fail("manage_task.complete", err)
	}
	if err := f.machine.ValidateTaskTransition(task, types.StatusDone, ready); err != nil {
		return fail("manage_task.complete", err)
	}

	now := time.Now()
	task.Status = types.StatusDone
	task.CompletedAt = &now
	task.ProgressPercentage = 100
	task.UpdatedAt = now

	if err := s.tasks.SaveWithVersion(ctx, task, expectedVersion); err != nil {
		return fail("manage_task.complete", orcherrors.ConcurrentModificationErr("task", id.String()))
	}
	f.emit(ctx, "TaskCompleted", id.String(), "Task", map[string]any{"completion_summary": summary})
	return ok(task)
}

func (f *Facade) taskDelete(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_task.delete", err)
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fail("manage_task.delete", err)
	}
	_ = f.deps.DeleteForTask(ctx, id)
	f.emit(ctx, "TaskDeleted", id.String(), "Task", nil)
	return ok(map[string]any{"deleted": true})
}

func (f *Facade) taskAddDependency(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	taskID, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_task.add_dependency", err)
	}
	dependsOnID, err := requireUUID(params, "depends_on_task_id")
	if err != nil {
		return fail("manage_task.add_dependency", err)
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return fail("manage_task.add_dependency", err)
	}
	if _, err := s.tasks.FindByID(ctx, dependsOnID); err != nil {
		return fail("manage_task.add_dependency", err)
	}

	allDeps, err := f.deps.AllForUser(ctx, userID)
	if err != nil {
		return fail("manage_task.add_dependency", err)
	}
	if selection.NewGraph(allDeps).WouldCycle(taskID, dependsOnID) {
		return fail("manage_task.add_dependency", orcherrors.ValidationErr("adding this dependency would create a cycle"))
	}

	if err := f.deps.Add(ctx, taskID, dependsOnID, userID); err != nil {
		return fail("manage_task.add_dependency", err)
	}
	f.emit(ctx, "TaskDependencyAdded", taskID.String(), "Task", map[string]any{"depends_on": dependsOnID.String()})
	return ok(map[string]any{"task_id": taskID, "depends_on_task_id": dependsOnID})
}

func (f *Facade) taskRemoveDependency(ctx context.Context, s scoped, params map[string]any) *Response {
	taskID, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_task.remove_dependency", err)
	}
	dependsOnID, err := requireUUID(params, "depends_on_task_id")
	if err != nil {
		return fail("manage_task.remove_dependency", err)
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return fail("manage_task.remove_dependency", err)
	}
	if err := f.deps.Remove(ctx, taskID, dependsOnID); err != nil {
		return fail("manage_task.remove_dependency", err)
	}
	return ok(map[string]any{"task_id": taskID, "depends_on_task_id": dependsOnID})
}

func (f *Facade) taskNext(ctx context.Context, userID string, params map[string]any) *Response {
	filter := types.TaskFilter{}
	if bid, err := optionalUUID(params, "branch_id"); err != nil {
		return fail("manage_task.next", err)
	} else {
		filter.BranchID = bid
	}
	if assignee, err := optionalUUID(params, "assignee"); err != nil {
		return fail("manage_task.next", err)
	} else {
		filter.Assignee = assignee
	}
	filter.Labels = optionalStringSlice(params, "labels")

	tasks, err := f.tasks.FindAll(ctx, userID, types.TaskFilter{})
	if err != nil {
		return fail("manage_task.next", err)
	}
	for _, t := range tasks {
		if subs, err := f.subtasks.FindByTask(ctx, t.ID); err == nil {
			t.Subtasks = subs
		}
	}

	allDeps, err := f.deps.AllForUser(ctx, userID)
	if err != nil {
		return fail("manage_task.next", err)
	}

	contextStatus := make(map[uuid.UUID]types.Status, len(tasks))
	for _, t := range tasks {
		if tc, err := f.contexts.FindTask(ctx, t.ID); err == nil && tc.Status != "" {
			contextStatus[t.ID] = tc.Status
		}
	}

	selFilters := selection.Filters{Assignee: filter.Assignee, BranchID: filter.BranchID, Labels: filter.Labels}
	result := selection.Select(tasks, allDeps, contextStatus, selFilters)
	return ok(result)
}
