package hints

import (
	"fmt"
	"time"

	"github.com/denkhaus/conductor/internal/types"
)

const stalledThreshold = 48 * time.Hour
const collaborationThreshold = 24 * time.Hour

// StalledProgressRule fires when a task has sat in_progress without an
// update for more than 48 hours.
type StalledProgressRule struct{}

func (StalledProgressRule) Name() string { return "stalled_progress" }

func (StalledProgressRule) IsApplicable(rc RuleContext) bool {
	return rc.Task.Status == types.StatusInProgress && rc.Now.Sub(rc.Task.UpdatedAt) > stalledThreshold
}

func (r StalledProgressRule) GenerateHint(rc RuleContext) *types.Hint {
	return newHint(rc, r.Name(), types.HintWarning, types.ImpactHigh,
		"Task progress has stalled",
		fmt.Sprintf("%q has not been updated in over 48 hours while in_progress.", rc.Task.Title),
		"Check in with the assignee", "Update progress_notes or move the task to blocked")
}

// ImplementationReadyForTestingRule fires once most subtasks are done but
// no testing notes have been recorded yet.
type ImplementationReadyForTestingRule struct{}

func (ImplementationReadyForTestingRule) Name() string { return "implementation_ready_for_testing" }

func (ImplementationReadyForTestingRule) IsApplicable(rc RuleContext) bool {
	if len(rc.Task.Subtasks) == 0 || rc.Task.TestingNotes != "" {
		return false
	}
	return subtaskDoneRatio(rc.Task.Subtasks) >= 0.8
}

func (r ImplementationReadyForTestingRule) GenerateHint(rc RuleContext) *types.Hint {
	return newHint(rc, r.Name(), types.HintOpportunity, types.ImpactMedium,
		"Ready for testing",
		"80% or more of subtasks are done and no testing notes exist yet.",
		"Move the task to testing", "Record testing_notes before completion")
}

// MissingContextRule fires when an in_progress task has no resolved
// context data attached.
type MissingContextRule struct{}

func (MissingContextRule) Name() string { return "missing_context" }

func (MissingContextRule) IsApplicable(rc RuleContext) bool {
	if rc.Task.Status != types.StatusInProgress {
		return false
	}
	return rc.TaskContext == nil || len(rc.TaskContext.Data) == 0
}

func (r MissingContextRule) GenerateHint(rc RuleContext) *types.Hint {
	return newHint(rc, r.Name(), types.HintWarning, types.ImpactMedium,
		"No resolved context available",
		"This task is in progress but has no resolved context data to work from.",
		"Create a task context", "Delegate relevant patterns from the branch context")
}

// ComplexDependencyRule fires when a task is blocked by three or more
// unsatisfied predecessors.
type ComplexDependencyRule struct{}

func (ComplexDependencyRule) Name() string { return "complex_dependency" }

func (ComplexDependencyRule) IsApplicable(rc RuleContext) bool {
	unsatisfied := 0
	for _, t := range rc.RelatedTasks {
		if t.Status != types.StatusDone {
			unsatisfied++
		}
	}
	return unsatisfied >= 3
}

func (r ComplexDependencyRule) GenerateHint(rc RuleContext) *types.Hint {
	return newHint(rc, r.Name(), types.HintBlocker, types.ImpactHigh,
		"Complex dependency chain",
		"Three or more predecessor tasks are still unsatisfied.",
		"Prioritize the predecessor tasks", "Consider splitting this task")
}

// NearCompletionRule fires when progress is at least 90% but the task is
// not yet done.
type NearCompletionRule struct{}

func (NearCompletionRule) Name() string { return "near_completion" }

func (NearCompletionRule) IsApplicable(rc RuleContext) bool {
	return rc.Task.Status != types.StatusDone && rc.Task.ProgressPercentage >= 90
}

func (r NearCompletionRule) GenerateHint(rc RuleContext) *types.Hint {
	return newHint(rc, r.Name(), types.HintOpportunity, types.ImpactLow,
		"Nearly complete",
		"This task is at 90% or more progress and not yet marked done.",
		"Write a completion_summary and transition to done")
}

// CollaborationNeededRule fires when a task has multiple assignees but
// has seen no update in the last 24 hours.
type CollaborationNeededRule struct{}

func (CollaborationNeededRule) Name() string { return "collaboration_needed" }

func (CollaborationNeededRule) IsApplicable(rc RuleContext) bool {
	return len(rc.Task.Assignees) > 1 && rc.Now.Sub(rc.Task.UpdatedAt) > collaborationThreshold
}

func (r CollaborationNeededRule) GenerateHint(rc RuleContext) *types.Hint {
	return newHint(rc, r.Name(), types.HintRecommendation, types.ImpactMedium,
		"Coordinate with co-assignees",
		"Multiple assignees share this task and there has been no update in 24 hours.",
		"Sync with co-assignees", "Clarify ownership of remaining work")
}

func subtaskDoneRatio(subtasks []*types.Subtask) float64 {
	if len(subtasks) == 0 {
		return 0
	}
	done := 0
	for _, s := range subtasks {
		if s.Status == types.StatusDone {
			done++
		}
	}
	return float64(done) / float64(len(subtasks))
}
