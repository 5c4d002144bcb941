package orchestration

import (
	"context"
	"time"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// ManageContext implements manage_context: create | get | update | delete |
// resolve | delegate | add_insight | add_progress, wiring internal/context's
// Engine for everything that touches the hierarchy's merge/cache/delegation
// semantics.
func (f *Facade) ManageContext(ctx context.Context, userID, action string, params map[string]any) *Response {
	switch action {
	case "create":
		return f.contextCreate(ctx, userID, params)
	case "get":
		return f.contextGet(ctx, userID, params)
	case "update":
		return f.contextUpdate(ctx, userID, params)
	case "delete":
		return f.contextDelete(ctx, userID, params)
	case "resolve":
		return f.contextResolve(ctx, userID, params)
	case "delegate":
		return f.contextDelegate(ctx, userID, params)
	case "add_insight":
		return f.contextAddInsight(ctx, userID, params)
	case "add_progress":
		return f.contextAddProgress(ctx, userID, params)
	default:
		return fail("manage_context", orcherrors.UnknownActionErr(action))
	}
}

func (f *Facade) contextCreate(ctx context.Context, userID string, params map[string]any) *Response {
	level, err := requireContextLevel(params, "level")
	if err != nil {
		return fail("manage_context.create", err)
	}
	id, err := requireUUID(params, "id")
	if err != nil {
		return fail("manage_context.create", err)
	}
	parentID, err := optionalUUID(params, "parent_id")
	if err != nil {
		return fail("manage_context.create", err)
	}
	data := optionalMap(params, "data")

	if err := f.ctxEngine.Create(ctx, userID, level, id, data, parentID); err != nil {
		return fail("manage_context.create", err)
	}
	f.emit(ctx, "ContextCreated", id.String(), "Context", map[string]any{"level": string(level)})
	return ok(map[string]any{"level": level, "id": id})
}

// contextGet fetches the raw, unmerged document for one level, distinct
// from "resolve" which returns the full inherited merge.
func (f *Facade) contextGet(ctx context.Context, userID string, params map[string]any) *Response {
	level, err := requireContextLevel(params, "level")
	if err != nil {
		return fail("manage_context.get", err)
	}
	id, err := requireUUID(params, "id")
	if err != nil {
		return fail("manage_context.get", err)
	}

	switch level {
	case types.LevelProject:
		c, err := f.contexts.FindProject(ctx, id)
		if err != nil {
			return fail("manage_context.get", orcherrors.NotFoundErr("project_context", id.String()))
		}
		return ok(c)
	case types.LevelBranch:
		c, err := f.contexts.FindBranch(ctx, id)
		if err != nil {
			return fail("manage_context.get", orcherrors.NotFoundErr("branch_context", id.String()))
		}
		return ok(c)
	case types.LevelTask:
		c, err := f.contexts.FindTask(ctx, id)
		if err != nil {
			return fail("manage_context.get", orcherrors.NotFoundErr("task_context", id.String()))
		}
		return ok(c)
	default:
		c, err := f.contexts.FindGlobal(ctx, userID)
		if err != nil {
			return fail("manage_context.get", orcherrors.NotFoundErr("global_context", id.String()))
		}
		return ok(c)
	}
}

func (f *Facade) contextUpdate(ctx context.Context, userID string, params map[string]any) *Response {
	level, err := requireContextLevel(params, "level")
	if err != nil {
		return fail("manage_context.update", err)
	}
	id, err := requireUUID(params, "id")
	if err != nil {
		return fail("manage_context.update", err)
	}
	patch, err := requireMap(params, "data")
	if err != nil {
		return fail("manage_context.update", err)
	}
	if err := f.ctxEngine.Update(ctx, userID, level, id, patch); err != nil {
		return fail("manage_context.update", err)
	}
	f.emit(ctx, "ContextUpdated", id.String(), "Context", map[string]any{"level": string(level)})
	return ok(map[string]any{"level": level, "id": id})
}

func (f *Facade) contextDelete(ctx context.Context, userID string, params map[string]any) *Response {
	level, err := requireContextLevel(params, "level")
	if err != nil {
		return fail("manage_context.delete", err)
	}
	id, err := requireUUID(params, "id")
	if err != nil {
		return fail("manage_context.delete", err)
	}
	if err := f.ctxEngine.Delete(ctx, userID, level, id); err != nil {
		return fail("manage_context.delete", err)
	}
	f.emit(ctx, "ContextDeleted", id.String(), "Context", map[string]any{"level": string(level)})
	return ok(map[string]any{"deleted": true})
}

func (f *Facade) contextResolve(ctx context.Context, userID string, params map[string]any) *Response {
	level, err := requireContextLevel(params, "level")
	if err != nil {
		return fail("manage_context.resolve", err)
	}
	id, err := requireUUID(params, "id")
	if err != nil {
		return fail("manage_context.resolve", err)
	}
	resolved, err := f.ctxEngine.Resolve(ctx, userID, level, id)
	if err != nil {
		return fail("manage_context.resolve", err)
	}
	return ok(resolved)
}

func (f *Facade) contextDelegate(ctx context.Context, userID string, params map[string]any) *Response {
	sourceLevel, err := requireContextLevel(params, "source_level")
	if err != nil {
		return fail("manage_context.delegate", err)
	}
	sourceID, err := requireUUID(params, "source_id")
	if err != nil {
		return fail("manage_context.delegate", err)
	}
	targetLevel, err := requireContextLevel(params, "target_level")
	if err != nil {
		return fail("manage_context.delegate", err)
	}
	targetID, err := requireUUID(params, "target_id")
	if err != nil {
		return fail("manage_context.delegate", err)
	}
	data, err := requireMap(params, "delegated_data")
	if err != nil {
		return fail("manage_context.delegate", err)
	}
	reason := optionalString(params, "delegation_reason")
	trigger := types.DelegationTrigger(optionalString(params, "trigger_type"))
	if trigger == "" {
		trigger = types.TriggerManual
	}

	d := &types.ContextDelegation{
		SourceLevel:      sourceLevel,
		SourceID:         sourceID,
		TargetLevel:      targetLevel,
		TargetID:         targetID,
		DelegatedData:    data,
		DelegationReason: reason,
		TriggerType:      trigger,
	}
	if conf, ok := optionalFloat(params, "confidence_score"); ok {
		d.ConfidenceScore = &conf
	}

	saved, err := f.ctxEngine.Delegate(ctx, userID, d)
	if err != nil {
		return fail("manage_context.delegate", err)
	}
	f.emit(ctx, "ContextDelegated", saved.ID.String(), "ContextDelegation", map[string]any{
		"auto_delegated": saved.AutoDelegated,
	})
	return ok(saved)
}

// contextAddInsight appends a discovered pattern to a task context's
// discovered_patterns list (§4.4 "agents record what they learn").
func (f *Facade) contextAddInsight(ctx context.Context, userID string, params map[string]any) *Response {
	taskID, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_context.add_insight", err)
	}
	patternText, err := requireString(params, "pattern")
	if err != nil {
		return fail("manage_context.add_insight", err)
	}
	category := optionalString(params, "category")
	confidence, _ := optionalFloat(params, "confidence")

	tc, err := f.contexts.FindTask(ctx, taskID)
	if err != nil {
		return fail("manage_context.add_insight", orcherrors.NotFoundErr("task_context", taskID.String()))
	}
	tc.DiscoveredPatterns = append(tc.DiscoveredPatterns, types.Pattern{
		Pattern: patternText, Category: category, Confidence: confidence,
	})
	tc.Version++
	if err := f.contexts.SaveTask(ctx, tc); err != nil {
		return fail("manage_context.add_insight", orcherrors.Wrap(orcherrors.InternalError, "save task context", err))
	}
	f.emit(ctx, "ContextInsightAdded", taskID.String(), "Context", map[string]any{"pattern": patternText})
	return ok(tc)
}

// contextAddProgress records a local decision against a task context,
// the hierarchy's append-only running log of what happened and why.
func (f *Facade) contextAddProgress(ctx context.Context, userID string, params map[string]any) *Response {
	taskID, err := requireUUID(params, "task_id")
	if err != nil {
		return fail("manage_context.add_progress", err)
	}
	decision, err := requireString(params, "decision")
	if err != nil {
		return fail("manage_context.add_progress", err)
	}
	reasoning := optionalString(params, "reasoning")

	tc, err := f.contexts.FindTask(ctx, taskID)
	if err != nil {
		return fail("manage_context.add_progress", orcherrors.NotFoundErr("task_context", taskID.String()))
	}
	tc.LocalDecisions = append(tc.LocalDecisions, types.Decision{
		Decision: decision, Reasoning: reasoning, Timestamp: time.Now(),
	})
	tc.Version++
	if err := f.contexts.SaveTask(ctx, tc); err != nil {
		return fail("manage_context.add_progress", orcherrors.Wrap(orcherrors.InternalError, "save task context", err))
	}
	f.emit(ctx, "ContextProgressAdded", taskID.String(), "Context", map[string]any{"decision": decision})
	return ok(tc)
}
