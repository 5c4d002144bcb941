// Package auth validates bearer tokens and enforces the sliding-window
// rate limits of spec.md §4.1, generalising
// original_source's token_validator.py TokenValidator into the
// TokenRepository-backed lookup the rest of Conductor uses.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

// Validator validates API tokens against a TokenRepository, caching
// successful validations for TokenCacheTTL (spec.md §4.1) and rate
// limiting per token hash.
type Validator struct {
	tokens  types.TokenRepository
	limiter *RateLimiter
	cache   *cache.Cache
	ttl     time.Duration
}

func NewValidator(tokens types.TokenRepository, limiter *RateLimiter, ttl time.Duration) *Validator {
	return &Validator{
		tokens:  tokens,
		limiter: limiter,
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
	}
}

// HashToken returns the SHA-256 hex digest stored alongside APIToken
// rows; raw tokens are never persisted (spec.md §4.1).
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Validate strips an optional "Bearer " prefix, hashes the token,
// checks the rate limiter, then resolves the token via cache or
// TokenRepository. Expired or revoked tokens return INVALID_TOKEN;
// exceeding the rate limit returns RATE_LIMIT_EXCEEDED.
func (v *Validator) Validate(ctx context.Context, rawHeader string) (*types.APIToken, error) {
	raw := strings.TrimPrefix(rawHeader, "Bearer ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, orcherrors.InvalidTokenErr("no token provided")
	}

	hash := HashToken(raw)

	ok, window := v.limiter.Allow(hash, time.Now())
	if !ok {
		return nil, orcherrors.RateLimitErr(window)
	}

	if cached, found := v.cache.Get(hash); found {
		tok := cached.(*types.APIToken)
		if tok.Expired(time.Now()) {
			v.cache.Delete(hash)
			return nil, orcherrors.InvalidTokenErr("token expired")
		}
		return tok, nil
	}

	tok, err := v.tokens.FindByHash(ctx, hash)
	if err != nil {
		return nil, orcherrors.InvalidTokenErr("token not recognized")
	}
	if !tok.IsActive {
		return nil, orcherrors.InvalidTokenErr("token revoked")
	}
	if tok.Expired(time.Now()) {
		return nil, orcherrors.InvalidTokenErr("token expired")
	}

	v.cache.Set(hash, tok, v.ttl)
	_ = v.tokens.RecordUsage(ctx, tok.ID)
	return tok, nil
}

// RequireScope returns PERMISSION_DENIED if tok lacks scope.
func RequireScope(tok *types.APIToken, scope string) error {
	if !tok.HasScope(scope) {
		return orcherrors.PermissionDeniedErr(scope)
	}
	return nil
}
