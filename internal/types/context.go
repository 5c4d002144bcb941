package types

import (
	"time"

	"github.com/google/uuid"
)

// Decision records a local_decisions entry at branch/task level. Recovered
// from original_source's context.py local_decisions entry shape.
type Decision struct {
	Decision  string    `json:"decision"`
	Reasoning string    `json:"reasoning"`
	Timestamp time.Time `json:"timestamp"`
}

// Pattern records a discovered_patterns entry at task level. Recovered
// from original_source's context.py discovered_patterns entry shape.
type Pattern struct {
	Pattern    string  `json:"pattern"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// GlobalContext is the root of the context hierarchy; one row per user,
// auto-created on first access.
type GlobalContext struct {
	ID                uuid.UUID      `json:"id"`
	OrganizationID    string         `json:"organization_id"`
	AutonomousRules   map[string]any `json:"autonomous_rules,omitempty"`
	SecurityPolicies  map[string]any `json:"security_policies,omitempty"`
	CodingStandards   map[string]any `json:"coding_standards,omitempty"`
	WorkflowTemplates map[string]any `json:"workflow_templates,omitempty"`
	DelegationRules   map[string]any `json:"delegation_rules,omitempty"`
	Data              map[string]any `json:"data,omitempty"`
	UserID            string         `json:"user_id"`
	Version           int            `json:"version"`
}

// ProjectContext inherits from GlobalContext.
type ProjectContext struct {
	ID                       uuid.UUID      `json:"id"`
	ProjectID                uuid.UUID      `json:"project_id"`
	ParentGlobalID           uuid.UUID      `json:"parent_global_id"`
	Data                     map[string]any `json:"data,omitempty"`
	TeamPreferences          map[string]any `json:"team_preferences,omitempty"`
	TechnologyStack          map[string]any `json:"technology_stack,omitempty"`
	ProjectWorkflow          map[string]any `json:"project_workflow,omitempty"`
	LocalStandards           map[string]any `json:"local_standards,omitempty"`
	GlobalOverrides          map[string]any `json:"global_overrides,omitempty"`
	DelegationRules          map[string]any `json:"delegation_rules,omitempty"`
	UserID                   string         `json:"user_id"`
	Version                  int            `json:"version"`
	InheritanceDisabled      bool           `json:"inheritance_disabled"`
	InheritanceDisabledReason string        `json:"inheritance_disabled_reason,omitempty"`
}

// BranchContext inherits from ProjectContext.
type BranchContext struct {
	ID                        uuid.UUID      `json:"id"`
	BranchID                  uuid.UUID      `json:"branch_id"`
	ParentProjectID           uuid.UUID      `json:"parent_project_id"`
	Data                      map[string]any `json:"data,omitempty"`
	BranchWorkflow            map[string]any `json:"branch_workflow,omitempty"`
	FeatureFlags              map[string]any `json:"feature_flags,omitempty"`
	ActivePatterns            []Pattern      `json:"active_patterns,omitempty"`
	LocalOverrides            map[string]any `json:"local_overrides,omitempty"`
	DelegationRules           map[string]any `json:"delegation_rules,omitempty"`
	LocalDecisions            []Decision     `json:"local_decisions,omitempty"`
	UserID                    string         `json:"user_id"`
	Version                   int            `json:"version"`
	InheritanceDisabled       bool           `json:"inheritance_disabled"`
	InheritanceDisabledReason string         `json:"inheritance_disabled_reason,omitempty"`
}

// TaskContext inherits from BranchContext; force_local_only skips
// inheritance entirely regardless of inheritance_disabled flags above it.
type TaskContext struct {
	ID                        uuid.UUID      `json:"id"`
	TaskID                    uuid.UUID      `json:"task_id"`
	ParentBranchID            uuid.UUID      `json:"parent_branch_id"`
	ParentBranchContextID     uuid.UUID      `json:"parent_branch_context_id"`
	Data                      map[string]any `json:"data,omitempty"`
	TaskData                  map[string]any `json:"task_data,omitempty"`
	ExecutionContext          map[string]any `json:"execution_context,omitempty"`
	DiscoveredPatterns        []Pattern      `json:"discovered_patterns,omitempty"`
	LocalDecisions            []Decision     `json:"local_decisions,omitempty"`
	DelegationQueue           []uuid.UUID    `json:"delegation_queue,omitempty"`
	LocalOverrides            map[string]any `json:"local_overrides,omitempty"`
	ImplementationNotes       string         `json:"implementation_notes,omitempty"`
	DelegationTriggers        map[string]any `json:"delegation_triggers,omitempty"`
	UserID                    string         `json:"user_id"`
	Version                   int            `json:"version"`
	InheritanceDisabled       bool           `json:"inheritance_disabled"`
	InheritanceDisabledReason string         `json:"inheritance_disabled_reason,omitempty"`
	ForceLocalOnly            bool           `json:"force_local_only"`

	// Status is the context's own view of the owning task's status. The
	// selector's consistency gate (§4.4 step 2) compares this against the
	// task's actual status.
	Status Status `json:"status,omitempty"`
}

// ContextDelegation records intent to promote a pattern from a lower
// context level to a higher one.
type ContextDelegation struct {
	ID               uuid.UUID         `json:"id"`
	SourceLevel      ContextLevel      `json:"source_level"`
	SourceID         uuid.UUID         `json:"source_id"`
	TargetLevel      ContextLevel      `json:"target_level"`
	TargetID         uuid.UUID         `json:"target_id"`
	DelegatedData    map[string]any    `json:"delegated_data"`
	DelegationReason string            `json:"delegation_reason"`
	TriggerType      DelegationTrigger `json:"trigger_type"`
	AutoDelegated    bool              `json:"auto_delegated"`
	ConfidenceScore  *float64          `json:"confidence_score,omitempty"`
	Processed        bool              `json:"processed"`
	Approved         *bool             `json:"approved,omitempty"`
	UserID           string            `json:"user_id"`
	CreatedAt        time.Time         `json:"created_at"`
	ProcessedAt      *time.Time        `json:"processed_at,omitempty"`
}

// ShouldAutoApply reports whether this delegation, per §4.5, should be
// applied immediately rather than queued for human approval.
func (d *ContextDelegation) ShouldAutoApply() bool {
	if d.TriggerType == TriggerManual {
		return false
	}
	return d.ConfidenceScore != nil && *d.ConfidenceScore >= AutoApplyConfidence
}

// ResolvedContext is the document returned by Resolve(), carrying the
// merged data plus inheritance provenance metadata.
type ResolvedContext struct {
	Level ContextLevel   `json:"level"`
	ID    uuid.UUID      `json:"id"`
	Data  map[string]any `json:"data"`

	// OwnData is the document's contribution before any parent merge,
	// used by the round-trip create/resolve testable property (§8).
	OwnData map[string]any `json:"own_data"`

	InheritanceChain []ContextLevel `json:"inheritance_chain"`
	InheritanceDepth int            `json:"inheritance_depth"`
	DependenciesHash string         `json:"dependencies_hash"`
	Version          int            `json:"version"`
}

// ContextInheritanceCache is a cached resolution, unique per
// (context_id, context_level) and user.
type ContextInheritanceCache struct {
	ContextID          uuid.UUID       `json:"context_id"`
	ContextLevel       ContextLevel    `json:"context_level"`
	ResolvedContext    ResolvedContext `json:"resolved_context"`
	DependenciesHash   string          `json:"dependencies_hash"`
	ResolutionPath     []string        `json:"resolution_path"`
	ParentChain        []uuid.UUID     `json:"parent_chain"`
	CreatedAt          time.Time       `json:"created_at"`
	ExpiresAt          time.Time       `json:"expires_at"`
	HitCount           int             `json:"hit_count"`
	LastHit            time.Time       `json:"last_hit"`
	CacheSizeBytes     int             `json:"cache_size_bytes"`
	Invalidated        bool            `json:"invalidated"`
	InvalidationReason string          `json:"invalidation_reason,omitempty"`
	UserID             string          `json:"user_id"`
}
