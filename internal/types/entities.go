// Package types defines the core domain models and repository interfaces for
// the Conductor task orchestration service.
//
// All entities carry a user_id and are isolated per tenant by the
// tenancy package; this package only declares shape, not the isolation
// policy itself. IDs are UUIDs; timestamps are UTC.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Project is a top-level container owning a set of Branches. Names are
// unique per user.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	UserID      string        `json:"user_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Branch is a git-branch workspace within a project; names are unique
// within a project. Deleting a project cascades to its branches.
type Branch struct {
	ID                 uuid.UUID  `json:"id"`
	ProjectID           uuid.UUID  `json:"project_id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	AssignedAgentID     *uuid.UUID `json:"assigned_agent_id,omitempty"`
	Status              BranchStatus `json:"status"`
	TaskCount           int        `json:"task_count"`
	CompletedTaskCount  int        `json:"completed_task_count"`
	UserID              string     `json:"user_id"`
}

// Task is the fundamental unit of work. completed_at is set iff
// status == done; completion_summary is required to transition into done.
type Task struct {
	ID                  uuid.UUID  `json:"id"`
	BranchID            uuid.UUID  `json:"branch_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Status              Status     `json:"status"`
	Priority            Priority   `json:"priority"`
	Details             string     `json:"details,omitempty"`
	EstimatedEffort     string     `json:"estimated_effort,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CompletionSummary   string     `json:"completion_summary,omitempty"`
	TestingNotes        string     `json:"testing_notes,omitempty"`
	ContextID           *uuid.UUID `json:"context_id,omitempty"`
	ProgressPercentage  float64    `json:"progress_percentage"`
	UserID              string     `json:"user_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// Version is the optimistic-concurrency token read back by callers and
	// passed as expectedVersion to TaskRepository.SaveWithVersion (§5).
	Version int `json:"version"`

	// Owned ordered collections. Repositories populate these on reads that
	// request them; the facade is responsible for deciding when to hydrate.
	Subtasks     []*Subtask       `json:"subtasks,omitempty"`
	Assignees    []uuid.UUID      `json:"assignees,omitempty"`
	Labels       []string         `json:"labels,omitempty"`
	Dependencies []TaskDependency `json:"dependencies,omitempty"`
}

// Subtask belongs to exactly one Task. A task cannot reach status done
// while any subtask is incomplete (not done or cancelled).
type Subtask struct {
	ID                 uuid.UUID   `json:"id"`
	TaskID             uuid.UUID   `json:"task_id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Status             Status      `json:"status"`
	Priority           Priority    `json:"priority"`
	Assignees          []uuid.UUID `json:"assignees,omitempty"`
	ProgressPercentage float64     `json:"progress_percentage"`
	ProgressNotes      string      `json:"progress_notes,omitempty"`
	Blockers           string      `json:"blockers,omitempty"`
	CompletionSummary  string      `json:"completion_summary,omitempty"`
	ImpactOnParent     string      `json:"impact_on_parent,omitempty"`
	InsightsFound      []string    `json:"insights_found,omitempty"`
	UserID             string      `json:"user_id"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Incomplete reports whether the subtask still blocks its parent's
// transition to done.
func (s *Subtask) Incomplete() bool {
	return s.Status != StatusDone && s.Status != StatusCancelled
}

// ComputeProgress implements the §4.3 subtask progress rollup: the sum of
// subtask progress percentages divided by (count * 100), expressed as a
// percentage and rounded to one decimal. Returns 0 for a task with no
// subtasks.
func ComputeProgress(subtasks []*Subtask) float64 {
	if len(subtasks) == 0 {
		return 0
	}
	var sum float64
	for _, s := range subtasks {
		sum += s.ProgressPercentage
	}
	pct := sum / (float64(len(subtasks)) * 100) * 100
	return float64(int(pct*10+0.5)) / 10
}

// TaskDependency records that TaskID cannot become in_progress/done until
// DependsOnTaskID is done. Self-dependencies are rejected by the
// facade's add_dependency (via selection.Graph.WouldCycle), not by this
// struct.
type TaskDependency struct {
	TaskID          uuid.UUID      `json:"task_id"`
	DependsOnTaskID uuid.UUID      `json:"depends_on_task_id"`
	DependencyType  DependencyType `json:"dependency_type"`
	UserID          string         `json:"user_id"`
}

// Agent registers to a project and may be assigned to at most one branch
// at a time.
type Agent struct {
	ID                uuid.UUID   `json:"id"`
	ProjectID         uuid.UUID   `json:"project_id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Role              string      `json:"role"`
	Capabilities      []string    `json:"capabilities,omitempty"`
	Status            AgentStatus `json:"status"`
	AvailabilityScore float64     `json:"availability_score"`
	UserID            string      `json:"user_id"`
}

// APIToken is the persisted record for a bearer token; the raw token is
// never stored, only its SHA-256 hash.
type APIToken struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	TokenHash   string            `json:"token_hash"`
	Scopes      []string          `json:"scopes"`
	RateLimit   int               `json:"rate_limit"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	UsageCount  int64             `json:"usage_count"`
	IsActive    bool              `json:"is_active"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// HasScope reports whether the token carries the given scope.
func (t *APIToken) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Expired reports whether the token has passed its expiry.
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// Hint is an ephemeral workflow suggestion emitted for a task; it is
// durable only once Accept()-ed by the caller.
type Hint struct {
	ID                 uuid.UUID      `json:"id"`
	TaskID              uuid.UUID      `json:"task_id"`
	Type                HintType       `json:"type"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Impact              ImpactLevel    `json:"impact"`
	SuggestedActions    []string       `json:"suggested_actions,omitempty"`
	AffectedObjectives  []string       `json:"affected_objectives,omitempty"`
	AffectedTasks       []uuid.UUID    `json:"affected_tasks,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	ExpiresAt           *time.Time     `json:"expires_at,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`

	// Set by the ranking stage; not persisted on the Hint itself.
	RuleName            string  `json:"rule_name,omitempty"`
	EffectivenessScore  float64 `json:"effectiveness_score"`
	UrgencyScore        float64 `json:"urgency_score"`
}
