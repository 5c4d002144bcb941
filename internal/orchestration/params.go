package orchestration

import (
	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

func requireString(params map[string]any, field string) (string, error) {
	v, ok := params[field]
	if !ok {
		return "", orcherrors.MissingFieldErr(field, "string", "provide "+field)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", orcherrors.MissingFieldErr(field, "string", "provide a non-empty "+field)
	}
	return s, nil
}

func optionalString(params map[string]any, field string) string {
	if v, ok := params[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requireUUID(params map[string]any, field string) (uuid.UUID, error) {
	s, err := requireString(params, field)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, orcherrors.ValidationErr(field + " is not a valid uuid")
	}
	return id, nil
}

func optionalUUID(params map[string]any, field string) (*uuid.UUID, error) {
	s := optionalString(params, field)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, orcherrors.ValidationErr(field + " is not a valid uuid")
	}
	return &id, nil
}

func optionalFloat(params map[string]any, field string) (float64, bool) {
	v, ok := params[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func optionalStringSlice(params map[string]any, field string) []string {
	v, ok := params[field]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optionalUUIDSlice(params map[string]any, field string) ([]uuid.UUID, error) {
	strs := optionalStringSlice(params, field)
	if strs == nil {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(strs))
	for _, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, orcherrors.ValidationErr(field + " contains an invalid uuid")
		}
		out = append(out, id)
	}
	return out, nil
}

func optionalMap(params map[string]any, field string) map[string]any {
	v, ok := params[field]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

func requireMap(params map[string]any, field string) (map[string]any, error) {
	m := optionalMap(params, field)
	if m == nil {
		return nil, orcherrors.MissingFieldErr(field, "object", "provide "+field+" as an object")
	}
	return m, nil
}

func requirePriority(params map[string]any, field string, def types.Priority) (types.Priority, error) {
	s := optionalString(params, field)
	if s == "" {
		return def, nil
	}
	p := types.Priority(s)
	if !p.Valid() {
		return "", orcherrors.ValidationErr(field + " is not a recognized priority")
	}
	return p, nil
}

func requireStatus(params map[string]any, field string) (types.Status, error) {
	s, err := requireString(params, field)
	if err != nil {
		return "", err
	}
	st := types.Status(s)
	if !st.Valid() {
		return "", orcherrors.ValidationErr(field + " is not a recognized status")
	}
	return st, nil
}

func requireContextLevel(params map[string]any, field string) (types.ContextLevel, error) {
	s, err := requireString(params, field)
	if err != nil {
		return "", err
	}
	level := types.ContextLevel(s)
	if level.Index() < 0 {
		return "", orcherrors.ValidationErr(field + " is not a recognized context level")
	}
	return level, nil
}
