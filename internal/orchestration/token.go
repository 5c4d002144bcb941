package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/auth"
	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// ManageToken implements manage_token: create | list | get | revoke |
// reactivate | rotate | validate | stats | cleanup, wiring internal/auth's
// Validator for hashing and the "validate" action.
func (f *Facade) ManageToken(ctx context.Context, userID, action string, params map[string]any) *Response {
	s := f.scope(userID)

	switch action {
	case "create":
		return f.tokenCreate(ctx, s, userID, params)
	case "list":
		return f.tokenList(ctx, s)
	case "get":
		return f.tokenGet(ctx, s, params)
	case "revoke":
		return f.tokenSetActive(ctx, s, params, false)
	case "reactivate":
		return f.tokenSetActive(ctx, s, params, true)
	case "rotate":
		return f.tokenRotate(ctx, s, params)
	case "validate":
		return f.tokenValidate(ctx, params)
	case "stats":
		return f.tokenStats(ctx, s, params)
	case "cleanup":
		return f.tokenCleanup(ctx, s)
	default:
		return fail("manage_token", orcherrors.UnknownActionErr(action))
	}
}

func (f *Facade) tokenCreate(ctx context.Context, s scoped, userID string, params map[string]any) *Response {
	name, err := requireString(params, "name")
	if err != nil {
		return fail("manage_token.create", err)
	}
	scopes := optionalStringSlice(params, "scopes")
	if len(scopes) == 0 {
		return fail("manage_token.create", orcherrors.MissingFieldErr("scopes", "array", "provide at least one scope"))
	}
	rateLimit := 100
	if v, ok := optionalFloat(params, "rate_limit"); ok {
		rateLimit = int(v)
	}

	raw := uuid.New().String() + uuid.New().String()
	tok := &types.APIToken{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		TokenHash: auth.HashToken(raw),
		Scopes:    scopes,
		RateLimit: rateLimit,
		IsActive:  true,
		Metadata:  optionalMap(params, "metadata"),
	}
	if ttlHours, ok := optionalFloat(params, "expires_in_hours"); ok {
		expiry := time.Now().Add(time.Duration(ttlHours) * time.Hour)
		tok.ExpiresAt = &expiry
	}
	if err := s.tokens.Save(ctx, tok); err != nil {
		return fail("manage_token.create", err)
	}
	f.emit(ctx, "TokenCreated", tok.ID.String(), "APIToken", map[string]any{"name": tok.Name})
	// raw_token is returned only when a token is minted (here and on
	// rotate); the hash is the only persisted form.
	return ok(map[string]any{"token": tok, "raw_token": raw})
}

func (f *Facade) tokenList(ctx context.Context, s scoped) *Response {
	toks, err := s.tokens.FindAll(ctx)
	if err != nil {
		return fail("manage_token.list", err)
	}
	return ok(toks)
}

func (f *Facade) tokenGet(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "token_id")
	if err != nil {
		return fail("manage_token.get", err)
	}
	tok, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return fail("manage_token.get", err)
	}
	return ok(tok)
}

func (f *Facade) tokenSetActive(ctx context.Context, s scoped, params map[string]any, active bool) *Response {
	id, err := requireUUID(params, "token_id")
	if err != nil {
		return fail("manage_token.revoke", err)
	}
	tok, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return fail("manage_token.revoke", err)
	}
	tok.IsActive = active
	if err := s.tokens.Save(ctx, tok); err != nil {
		return fail("manage_token.revoke", err)
	}
	eventType := "TokenRevoked"
	if active {
		eventType = "TokenReactivated"
	}
	f.emit(ctx, eventType, id.String(), "APIToken", nil)
	return ok(tok)
}

// tokenRotate revokes the existing token and mints a new one carrying the
// same name, scopes, and rate limit — credential hygiene without
// disrupting whatever the old token's scopes were granted for.
func (f *Facade) tokenRotate(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "token_id")
	if err != nil {
		return fail("manage_token.rotate", err)
	}
	old, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return fail("manage_token.rotate", err)
	}
	old.IsActive = false
	if err := s.tokens.Save(ctx, old); err != nil {
		return fail("manage_token.rotate", err)
	}

	raw := uuid.New().String() + uuid.New().String()
	fresh := &types.APIToken{
		ID:        uuid.New(),
		UserID:    old.UserID,
		Name:      old.Name,
		TokenHash: auth.HashToken(raw),
		Scopes:    old.Scopes,
		RateLimit: old.RateLimit,
		ExpiresAt: old.ExpiresAt,
		IsActive:  true,
	}
	if err := s.tokens.Save(ctx, fresh); err != nil {
		return fail("manage_token.rotate", err)
	}
	f.emit(ctx, "TokenRotated", fresh.ID.String(), "APIToken", map[string]any{"replaces": id.String()})
	return ok(map[string]any{"token": fresh, "raw_token": raw})
}

// tokenValidate exercises the unscoped auth.Validator directly: the
// caller's user id is not yet known before a token resolves, so this is
// the one path in manage_token that bypasses internal/tenancy (see the
// comment on Tokens.FindByHash).
func (f *Facade) tokenValidate(ctx context.Context, params map[string]any) *Response {
	rawHeader, err := requireString(params, "token")
	if err != nil {
		return fail("manage_token.validate", err)
	}
	tok, err := f.validator.Validate(ctx, rawHeader)
	if err != nil {
		return fail("manage_token.validate", err)
	}
	if scope := optionalString(params, "required_scope"); scope != "" {
		if err := auth.RequireScope(tok, scope); err != nil {
			return fail("manage_token.validate", err)
		}
	}
	return ok(map[string]any{"valid": true, "token": tok})
}

func (f *Facade) tokenStats(ctx context.Context, s scoped, params map[string]any) *Response {
	id, err := requireUUID(params, "token_id")
	if err != nil {
		return fail("manage_token.stats", err)
	}
	tok, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return fail("manage_token.stats", err)
	}
	return ok(map[string]any{
		"usage_count":  tok.UsageCount,
		"last_used_at": tok.LastUsedAt,
		"is_active":    tok.IsActive,
		"expires_at":   tok.ExpiresAt,
	})
}

// tokenCleanup revokes every expired, still-active token for the caller.
func (f *Facade) tokenCleanup(ctx context.Context, s scoped) *Response {
	toks, err := s.tokens.FindAll(ctx)
	if err != nil {
		return fail("manage_token.cleanup", err)
	}
	now := time.Now()
	revoked := make([]uuid.UUID, 0)
	for _, t := range toks {
		if t.IsActive && t.Expired(now) {
			t.IsActive = false
			if err := s.tokens.Save(ctx, t); err == nil {
				revoked = append(revoked, t.ID)
			}
		}
	}
	return ok(map[string]any{"revoked_token_ids": revoked})
}
