// Package hints implements the workflow-hint pipeline of spec.md §4.7: a
// registered list of pure Rule values inspected against a task's context,
// ranked and fed back into a per-rule effectiveness EWMA. Grounded on
// original_source's hint_generation_service.py pipeline shape (load -> run
// rules -> annotate -> filter -> rank) and on
// internal/selection/strategies.go's StrategyFactory registration pattern —
// adding a rule is a registration, not a subclass, per spec.md §9's
// resolved open question collapsing HintManager/HintGenerationService into
// one engine with a strategy slot.
package hints

import (
	"time"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

// RuleContext is the read-only view a Rule inspects. Rules must not
// mutate any field reachable from it.
type RuleContext struct {
	Task               *types.Task
	TaskContext        *types.ResolvedContext
	RelatedTasks       []*types.Task
	HistoricalPatterns []types.Pattern
	Now                time.Time
}

// Rule is a pure function of a RuleContext: IsApplicable gates whether
// GenerateHint runs at all, mirroring the two-method is_applicable/
// generate_hint contract of the original Python rules.
type Rule interface {
	Name() string
	IsApplicable(rc RuleContext) bool
	GenerateHint(rc RuleContext) *types.Hint
}

// StandardRules returns the six rules spec.md §4.7 requires, in the
// stable order the pipeline runs them.
func StandardRules() []Rule {
	return []Rule{
		StalledProgressRule{},
		ImplementationReadyForTestingRule{},
		MissingContextRule{},
		ComplexDependencyRule{},
		NearCompletionRule{},
		CollaborationNeededRule{},
	}
}

func newHint(rc RuleContext, ruleName string, hintType types.HintType, impact types.ImpactLevel, title, description string, actions ...string) *types.Hint {
	return &types.Hint{
		ID:               uuid.New(),
		TaskID:           rc.Task.ID,
		Type:             hintType,
		Title:            title,
		Description:      description,
		Impact:           impact,
		SuggestedActions: actions,
		AffectedTasks:    []uuid.UUID{rc.Task.ID},
		CreatedAt:        rc.Now,
		RuleName:         ruleName,
	}
}
