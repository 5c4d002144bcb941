package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

type fakeTokenRepo struct {
	byHash map[string]*types.APIToken
	usage  map[uuid.UUID]int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: map[string]*types.APIToken{}, usage: map[uuid.UUID]int{}}
}

func (f *fakeTokenRepo) FindByID(ctx context.Context, id uuid.UUID) (*types.APIToken, error) {
	for _, t := range f.byHash {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.NotFoundErr("token", id.String())
}

func (f *fakeTokenRepo) FindByHash(ctx context.Context, hash string) (*types.APIToken, error) {
	t, ok := f.byHash[hash]
	if !ok {
		return nil, errors.NotFoundErr("token", hash)
	}
	return t, nil
}

func (f *fakeTokenRepo) FindAll(ctx context.Context, userID string) ([]*types.APIToken, error) {
	var out []*types.APIToken
	for _, t := range f.byHash {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) Save(ctx context.Context, t *types.APIToken) error {
	f.byHash[t.TokenHash] = t
	return nil
}

func (f *fakeTokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for h, t := range f.byHash {
		if t.ID == id {
			delete(f.byHash, h)
		}
	}
	return nil
}

func (f *fakeTokenRepo) RecordUsage(ctx context.Context, id uuid.UUID) error {
	f.usage[id]++
	return nil
}

func TestValidator_ValidToken(t *testing.T) {
	repo := newFakeTokenRepo()
	raw := "secret-token"
	tok := &types.APIToken{ID: uuid.New(), UserID: "u1", TokenHash: HashToken(raw), IsActive: true, Scopes: []string{"task:write"}}
	require.NoError(t, repo.Save(context.Background(), tok))

	v := NewValidator(repo, NewRateLimiter(RateLimitConfig{RequestsPerMinute: 100, BurstSize: 20, RequestsPerHour: 1000}), 5*time.Minute)

	got, err := v.Validate(context.Background(), "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.Equal(t, 1, repo.usage[tok.ID])

	require.NoError(t, RequireScope(got, "task:write"))
	assert.Error(t, RequireScope(got, "task:delete"))
}

func TestValidator_RevokedAndExpired(t *testing.T) {
	repo := newFakeTokenRepo()
	past := time.Now().Add(-time.Hour)

	revoked := &types.APIToken{ID: uuid.New(), TokenHash: HashToken("revoked"), IsActive: false}
	expired := &types.APIToken{ID: uuid.New(), TokenHash: HashToken("expired"), IsActive: true, ExpiresAt: &past}
	require.NoError(t, repo.Save(context.Background(), revoked))
	require.NoError(t, repo.Save(context.Background(), expired))

	v := NewValidator(repo, NewRateLimiter(RateLimitConfig{RequestsPerMinute: 100, BurstSize: 20, RequestsPerHour: 1000}), 5*time.Minute)

	_, err := v.Validate(context.Background(), "revoked")
	require.Error(t, err)
	assert.Equal(t, errors.InvalidToken, errors.CodeOf(err))

	_, err = v.Validate(context.Background(), "expired")
	require.Error(t, err)
	assert.Equal(t, errors.InvalidToken, errors.CodeOf(err))
}

func TestRateLimiter_BurstExceeded(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1000, BurstSize: 2, RequestsPerHour: 10000})
	now := time.Now()

	ok, _ := rl.Allow("h", now)
	assert.True(t, ok)
	ok, _ = rl.Allow("h", now)
	assert.True(t, ok)
	ok, reason := rl.Allow("h", now)
	assert.False(t, ok)
	assert.Equal(t, "burst", reason)
}

func TestRateLimiter_MinuteWindowResets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, BurstSize: 10, RequestsPerHour: 1000})
	now := time.Now()

	ok, _ := rl.Allow("h", now)
	assert.True(t, ok)
	ok, reason := rl.Allow("h", now.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, "minute", reason)

	ok, _ = rl.Allow("h", now.Add(2*time.Minute))
	assert.True(t, ok)
}
