package hints

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

const (
	defaultEffectiveness = 0.5
	feedbackDecay        = 0.1
)

// Engine runs the §4.7 generation pipeline and owns the per-rule
// effectiveness EWMA fed by Accept/Dismiss/Feedback.
type Engine struct {
	rules       []Rule
	events      types.EventStore
	mu          sync.Mutex
	effectiveness map[string]float64

	// hints tracks emitted-but-not-yet-actioned hints by ID, so
	// Accept/Dismiss/Feedback can resolve a hint_id back to its rule name.
	hints map[uuid.UUID]*types.Hint
}

func New(events types.EventStore, rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = StandardRules()
	}
	return &Engine{
		rules:         rules,
		events:        events,
		effectiveness: make(map[string]float64),
		hints:         make(map[uuid.UUID]*types.Hint),
	}
}

// Generate runs the full pipeline for a single task: run rules, annotate
// with historical effectiveness, filter by the optional type allowlist,
// rank by (urgency desc, effectiveness desc), and emit a HintGenerated
// event per surviving hint.
func (e *Engine) Generate(ctx context.Context, rc RuleContext, typeFilter []types.HintType) ([]*types.Hint, error) {
	if rc.Now.IsZero() {
		rc.Now = time.Now()
	}

	var generated []*types.Hint
	for _, rule := range e.rules {
		if !rule.IsApplicable(rc) {
			continue
		}
		hint := rule.GenerateHint(rc)
		if hint == nil {
			continue
		}
		hint.EffectivenessScore = e.effectivenessOf(rule.Name())
		hint.UrgencyScore = urgencyScore(hint, rc.Now)
		generated = append(generated, hint)
	}

	filtered := filterByType(generated, typeFilter)

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].UrgencyScore != filtered[j].UrgencyScore {
			return filtered[i].UrgencyScore > filtered[j].UrgencyScore
		}
		return filtered[i].EffectivenessScore > filtered[j].EffectivenessScore
	})

	e.mu.Lock()
	for _, h := range filtered {
		e.hints[h.ID] = h
	}
	e.mu.Unlock()

	for _, h := range filtered {
		if err := e.emit(ctx, "HintGenerated", h); err != nil {
			return nil, err
		}
	}

	return filtered, nil
}

// Accept records positive feedback for hint_id's rule and pushes its
// effectiveness EWMA toward 1.0.
func (e *Engine) Accept(ctx context.Context, hintID uuid.UUID) error {
	return e.feedback(ctx, hintID, "HintAccepted", 1.0, nil)
}

// Dismiss records negative feedback, optionally with a reason, and pushes
// the rule's effectiveness EWMA toward 0.0.
func (e *Engine) Dismiss(ctx context.Context, hintID uuid.UUID, reason string) error {
	return e.feedback(ctx, hintID, "HintDismissed", 0.0, map[string]any{"reason": reason})
}

// Feedback records an explicit helpful/score signal.
func (e *Engine) Feedback(ctx context.Context, hintID uuid.UUID, helpful bool, score *float64) error {
	signal := 0.0
	if helpful {
		signal = 1.0
	}
	if score != nil {
		signal = *score
	}
	return e.feedback(ctx, hintID, "HintFeedback", signal, map[string]any{"helpful": helpful})
}

func (e *Engine) feedback(ctx context.Context, hintID uuid.UUID, eventType string, signal float64, metadata map[string]any) error {
	e.mu.Lock()
	hint, ok := e.hints[hintID]
	var ruleName string
	if ok {
		ruleName = hint.RuleName
		current, known := e.effectiveness[ruleName]
		if !known {
			current = defaultEffectiveness
		}
		e.effectiveness[ruleName] = current*(1-feedbackDecay) + signal*feedbackDecay
	}
	e.mu.Unlock()

	payload := map[string]any{"hint_id": hintID.String(), "rule_name": ruleName}
	for k, v := range metadata {
		payload[k] = v
	}
	event := &types.Event{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventData:    payload,
		TimestampUTC: time.Now(),
	}
	_, err := e.events.Append(ctx, event)
	return err
}

func (e *Engine) effectivenessOf(ruleName string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.effectiveness[ruleName]; ok {
		return v
	}
	return defaultEffectiveness
}

func (e *Engine) emit(ctx context.Context, eventType string, h *types.Hint) error {
	event := &types.Event{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventData: map[string]any{
			"hint_id":   h.ID.String(),
			"task_id":   h.TaskID.String(),
			"rule_name": h.RuleName,
			"impact":    string(h.Impact),
		},
		AggregateID:   h.TaskID.String(),
		AggregateType: "Task",
		TimestampUTC:  time.Now(),
	}
	_, err := e.events.Append(ctx, event)
	return err
}

func filterByType(hints []*types.Hint, allow []types.HintType) []*types.Hint {
	if len(allow) == 0 {
		return hints
	}
	set := make(map[types.HintType]bool, len(allow))
	for _, t := range allow {
		set[t] = true
	}
	out := make([]*types.Hint, 0, len(hints))
	for _, h := range hints {
		if set[h.Type] {
			out = append(out, h)
		}
	}
	return out
}

// urgencyScore combines the hint's impact weight with proximity to
// expires_at per spec.md §4.7: x1.5 within 1 day, x1.2 within 7 days,
// capped at 1.0.
func urgencyScore(h *types.Hint, now time.Time) float64 {
	score := h.Impact.Weight()
	if h.ExpiresAt == nil {
		return score
	}
	remaining := h.ExpiresAt.Sub(now)
	switch {
	case remaining <= 24*time.Hour:
		score *= 1.5
	case remaining <= 7*24*time.Hour:
		score *= 1.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
