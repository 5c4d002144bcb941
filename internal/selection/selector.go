package selection

import (
	"sort"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

// Select implements spec.md §4.4 NextTask over the full set of the
// caller's visible tasks (tenant scoping is the repository layer's job,
// not this package's). contextStatus maps a task id to its task-context's
// reported status, for tasks that have one; tasks absent from the map are
// treated as having no context to compare against.
func Select(tasks []*types.Task, deps []types.TaskDependency, contextStatus map[uuid.UUID]types.Status, filters Filters) *NextTaskResult {
	// Step 2: consistency gate runs over every visible task, before filtering.
	var mismatches []Mismatch
	for _, t := range tasks {
		if ctxStatus, ok := contextStatus[t.ID]; ok && ctxStatus != t.Status {
			mismatches = append(mismatches, Mismatch{
				TaskID:        t.ID,
				TaskStatus:    t.Status,
				ContextStatus: ctxStatus,
			})
		}
	}
	if len(mismatches) > 0 {
		return &NextTaskResult{Kind: KindStatusMismatch, Mismatches: mismatches,
			Message: "task/context status mismatch detected; resolve before selecting a next task"}
	}

	// Step 3: filters.
	filtered := applyFilters(tasks, filters)
	if len(filtered) == 0 {
		return &NextTaskResult{Kind: KindNoMatch, Message: "No tasks match filters."}
	}

	// Step 4: keep only actionable tasks.
	actionable := make([]*types.Task, 0, len(filtered))
	for _, t := range filtered {
		if t.Status.Actionable() {
			actionable = append(actionable, t)
		}
	}
	if len(actionable) == 0 {
		if allDone(filtered) {
			return &NextTaskResult{Kind: KindCompleted, Completion: completionSummary(filtered)}
		}
		return &NextTaskResult{Kind: KindNoActionable, Message: "no actionable tasks match filters"}
	}

	// Step 5: fixed sort order.
	sort.SliceStable(actionable, func(i, j int) bool {
		pi, si, ci := sortKey(actionable[i])
		pj, sj, cj := sortKey(actionable[j])
		if pi != pj {
			return pi < pj
		}
		if si != sj {
			return si < sj
		}
		return ci.Before(cj)
	})

	statusOf := func(id uuid.UUID) (types.Status, bool) {
		for _, t := range tasks {
			if t.ID == id {
				return t.Status, true
			}
		}
		return "", false
	}
	titleOf := func(id uuid.UUID) string {
		for _, t := range tasks {
			if t.ID == id {
				return t.Title
			}
		}
		return ""
	}

	graph := NewGraph(deps)

	// Step 6-7: first ready task wins.
	var blocked []BlockedTask
	for _, t := range actionable {
		ready, blockers := graph.Readiness(t.ID, statusOf)
		if !ready {
			info := make([]BlockerInfo, 0, len(blockers))
			for _, b := range blockers {
				status, _ := statusOf(b)
				info = append(info, BlockerInfo{TaskID: b, Title: titleOf(b), Status: status})
			}
			blocked = append(blocked, BlockedTask{Task: t, Blockers: info})
			continue
		}

		if sub := firstIncomplete(t.Subtasks); sub != nil {
			return &NextTaskResult{Kind: KindSubtask, Task: t, Subtask: sub}
		}
		return &NextTaskResult{Kind: KindTask, Task: t}
	}

	// Step 8: every actionable task is blocked.
	return &NextTaskResult{Kind: KindBlocked, BlockedTasks: blocked,
		Message: "all actionable tasks are blocked by unsatisfied dependencies"}
}

func applyFilters(tasks []*types.Task, f Filters) []*types.Task {
	out := make([]*types.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.BranchID != nil && t.BranchID != *f.BranchID {
			continue
		}
		if len(f.BranchIDs) > 0 && !containsUUID(f.BranchIDs, t.BranchID) {
			continue
		}
		if f.Assignee != nil && !containsUUID(t.Assignees, *f.Assignee) {
			continue
		}
		if len(f.Labels) > 0 && !containsAnyLabel(t.Labels, f.Labels) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func containsUUID(list []uuid.UUID, target uuid.UUID) bool {
	for _, id := range list {
		if id == target {
			return true
		}
	}
	return false
}

func containsAnyLabel(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func allDone(tasks []*types.Task) bool {
	for _, t := range tasks {
		if t.Status != types.StatusDone {
			return false
		}
	}
	return true
}

func completionSummary(tasks []*types.Task) *CompletionSummary {
	s := &CompletionSummary{Total: len(tasks), ByPriority: make(map[types.Priority]int)}
	for _, t := range tasks {
		s.ByPriority[t.Priority]++
	}
	return s
}

func firstIncomplete(subtasks []*types.Subtask) *types.Subtask {
	for _, s := range subtasks {
		if s.Incomplete() {
			return s
		}
	}
	return nil
}
