package selection

import (
	"time"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

// Filters narrows the candidate set per spec.md §4.4. BranchIDs restricts
// candidates to a set of branches; the orchestration facade's next action
// reads no project_id parameter and leaves BranchIDs empty.
type Filters struct {
	Assignee  *uuid.UUID
	BranchID  *uuid.UUID
	BranchIDs []uuid.UUID
	Labels    []string
}

// ResultKind discriminates the shape of a NextTaskResult.
type ResultKind string

const (
	KindTask           ResultKind = "task"
	KindSubtask        ResultKind = "subtask"
	KindStatusMismatch ResultKind = "status_mismatch"
	KindNoMatch        ResultKind = "no_match"
	KindCompleted      ResultKind = "completed"
	KindNoActionable   ResultKind = "no_actionable"
	KindBlocked        ResultKind = "blocked"
)

// Mismatch records a task whose task-context reported status disagrees
// with the task's own status (§4.4 step 2).
type Mismatch struct {
	TaskID        uuid.UUID
	TaskStatus    types.Status
	ContextStatus types.Status
}

// BlockerInfo names one unsatisfied predecessor and its current status.
type BlockerInfo struct {
	TaskID uuid.UUID
	Title  string
	Status types.Status
}

// BlockedTask is one entry of the §4.4 step 8 summary.
type BlockedTask struct {
	Task     *types.Task
	Blockers []BlockerInfo
}

// CompletionSummary is returned when every filtered task is done (§4.4 step 4).
type CompletionSummary struct {
	Total      int
	ByPriority map[types.Priority]int
}

// NextTaskResult is the discriminated result of Select, matching the
// response shapes of spec.md §4.4 steps 3-8.
type NextTaskResult struct {
	Kind         ResultKind
	Message      string
	Task         *types.Task
	Subtask      *types.Subtask
	Mismatches   []Mismatch
	Completion   *CompletionSummary
	BlockedTasks []BlockedTask
}

// HasNext reports whether the result carries a task or subtask to work on.
func (r *NextTaskResult) HasNext() bool {
	return r.Kind == KindTask || r.Kind == KindSubtask
}

func sortKey(t *types.Task) (priorityRank, statusRank int, createdAt time.Time) {
	priorityRank = t.Priority.Rank()
	if t.Status == types.StatusInProgress {
		statusRank = 1
	}
	return priorityRank, statusRank, t.CreatedAt
}
