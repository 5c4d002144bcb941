package orchestration

import (
	"context"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// ManageAgent implements manage_agent: register | assign | unassign | get |
// list | update | unregister | rebalance.
func (f *Facade) ManageAgent(ctx context.Context, userID, action string, params map[string]any) *Response {
	s := f.scope(userID)

	switch action {
	case "register":
		return f.agentRegister(ctx, s, userID, params)
	case "get":
		return f.agentGet(ctx, s, params)
	case "list":
		return f.agentList(ctx, s, params)
	case "update":
		return f.agentUpdate(ctx, s, params)
	case "assign":
		return f.agentAssign(ctx, s, params)
	case "unassign":
		return f.agentUnassign(ctx, s, params)
	case "unregister":
		return f.agentUnregister(ctx, s, params)
	case "rebalance":
		return f.agentRebalance(ctx, s, params)
	default:
		return fail("manage_agent", orcherrors.UnknownActionErr(action))
	}
}

func (f *Facade) agentRegister(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	projectID, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_agent.register", err)
	}
	name, err := requireString(params, "name")
	if err != nil {
		return fail("manage_agent.register", err)
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return fail("manage_agent.register", err)
	}

	agent := &types.Agent{
		ID:                uuid.New(),
		ProjectID:         projectID,
		Name:              name,
		Description:       optionalString(params, "description"),
		Role:              optionalString(params, "role"),
		Capabilities:      optionalStringSlice(params, "capabilities"),
		Status:            types.AgentAvailable,
		AvailabilityScore: 1.0,
		UserID:            userID,
	}
	if v, ok := optionalFloat(params, "availability_score"); ok {
		agent.AvailabilityScore = v
	}
	if err := s.agents.Save(ctx, agent); err != nil {
		return fail("manage_agent.register", err)
	}
	f.emit(ctx, "AgentRegistered", agent.ID.String(), "Agent", map[string]any{"name": agent.Name})
	return ok(agent)
}

func (f *Facade) agentGet(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "agent_id")
	if err != nil {
		return fail("manage_agent.get", err)
	}
	agent, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return fail("manage_agent.get", err)
	}
	return ok(agent)
}

func (f *Facade) agentList(ctx context.Context, s scoped, params map[string]any) *Response {
	projectID, err := optionalUUID(params, "project_id")
	if err != nil {
		return fail("manage_agent.list", err)
	}
	agents, err := s.agents.FindAll(ctx, projectID)
	if err != nil {
		return fail("manage_agent.list", err)
	}
	return ok(agents)
}

func (f *Facade) agentUpdate(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "agent_id")
	if err != nil {
		return fail("manage_agent.update", err)
	}
	agent, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return fail("manage_agent.update", err)
	}
	if v := optionalString(params, "name"); v != "" {
		agent.Name = v
	}
	if v, ok := params["description"]; ok {
		agent.Description, _ = v.(string)
	}
	if v := optionalString(params, "role"); v != "" {
		agent.Role = v
	}
	if caps := optionalStringSlice(params, "capabilities"); caps != nil {
		agent.Capabilities = caps
	}
	if v := optionalString(params, "status"); v != "" {
		agent.Status = types.AgentStatus(v)
	}
	if v, ok := optionalFloat(params, "availability_score"); ok {
		agent.AvailabilityScore = v
	}
	if err := s.agents.Save(ctx, agent); err != nil {
		return fail("manage_agent.update", err)
	}
	return ok(agent)
}

func (f *Facade) agentAssign(ctx context.Context, s scoped, params map[string]any) *Response {
	agentID, err := requireUUID(params, "agent_id")
	if err != nil {
		return fail("manage_agent.assign", err)
	}
	branchID, err := requireUUID(params, "branch_id")
	if err != nil {
		return fail("manage_agent.assign", err)
	}
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return fail("manage_agent.assign", err)
	}
	branch, err := s.branches.FindByID(ctx, branchID)
	if err != nil {
		return fail("manage_agent.assign", err)
	}
	branch.AssignedAgentID = &agentID
	if err := s.branches.Save(ctx, branch); err != nil {
		return fail("manage_agent.assign", err)
	}
	agent.Status = types.AgentBusy
	if err := s.agents.Save(ctx, agent); err != nil {
		return fail("manage_agent.assign", err)
	}
	f.emit(ctx, "AgentAssigned", agentID.String(), "Agent", map[string]any{"branch_id": branchID.String()})
	return ok(branch)
}

func (f *Facade) agentUnassign(ctx context.Context, s scoped, params map[string]any) *Response {
	branchID, err := requireUUID(params, "branch_id")
	if err != nil {
		return fail("manage_agent.unassign", err)
	}
	branch, err := s.branches.FindByID(ctx, branchID)
	if err != nil {
		return fail("manage_agent.unassign", err)
	}
	if branch.AssignedAgentID != nil {
		if agent, err := s.agents.FindByID(ctx, *branch.AssignedAgentID); err == nil {
			agent.Status = types.AgentAvailable
			_ = s.agents.Save(ctx, agent)
		}
	}
	branch.AssignedAgentID = nil
	if err := s.branches.Save(ctx, branch); err != nil {
		return fail("manage_agent.unassign", err)
	}
	f.emit(ctx, "AgentUnassigned", branchID.String(), "Branch", nil)
	return ok(branch)
}

func (f *Facade) agentUnregister(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "agent_id")
	if err != nil {
		return fail("manage_agent.unregister", err)
	}
	if err := s.agents.Delete(ctx, id); err != nil {
		return fail("manage_agent.unregister", err)
	}
	f.emit(ctx, "AgentUnregistered", id.String(), "Agent", nil)
	return ok(map[string]any{"deleted": true})
}

// agentRebalance is a read-only variant of manage_project's
// rebalance_agents diagnostic for one project: it returns the average
// availability and every agent of the project, not only the below-average
// ones.
func (f *Facade) agentRebalance(ctx context.Context, s scoped, params map[string]any) *Response {
	projectID, err := requireUUID(params, "project_id")
	if err != nil {
		return fail("manage_agent.rebalance", err)
	}
	agents, err := s.agents.FindAll(ctx, &projectID)
	if err != nil {
		return fail("manage_agent.rebalance", err)
	}
	var total float64
	for _, a := range agents {
		total += a.AvailabilityScore
	}
	avg := 0.0
	if len(agents) > 0 {
		avg = total / float64(len(agents))
	}
	return ok(map[string]any{"average_availability": avg, "agents": agents})
}
