package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

type fakeProjectRepo struct {
	byID map[uuid.UUID]*types.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{byID: map[uuid.UUID]*types.Project{}}
}

func (f *fakeProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errors.NotFoundErr("project", id.String())
	}
	return p, nil
}

func (f *fakeProjectRepo) FindAll(ctx context.Context, userID string) ([]*types.Project, error) {
	var out []*types.Project
	for _, p := range f.byID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) Save(ctx context.Context, p *types.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeProjectRepo) FindByName(ctx context.Context, userID, name string) (*types.Project, error) {
	for _, p := range f.byID {
		if p.UserID == userID && p.Name == name {
			return p, nil
		}
	}
	return nil, errors.NotFoundErr("project", name)
}

func TestProjects_CrossTenantReadDenied(t *testing.T) {
	repo := newFakeProjectRepo()
	owner := ScopeProjects(repo, "alice")
	p := &types.Project{Name: "mine"}
	require.NoError(t, owner.Save(context.Background(), p))

	intruder := ScopeProjects(repo, "mallory")
	_, err := intruder.FindByID(context.Background(), p.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CrossTenantWrite, errors.CodeOf(err))

	got, err := owner.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Name)
}

func TestProjects_SaveStampsUserID(t *testing.T) {
	repo := newFakeProjectRepo()
	s := ScopeProjects(repo, "bob")
	p := &types.Project{Name: "x", UserID: "someone-else"}
	require.NoError(t, s.Save(context.Background(), p))
	assert.Equal(t, "bob", p.UserID)
}

func TestProjects_DeleteChecksOwnership(t *testing.T) {
	repo := newFakeProjectRepo()
	owner := ScopeProjects(repo, "alice")
	p := &types.Project{Name: "mine"}
	require.NoError(t, owner.Save(context.Background(), p))

	intruder := ScopeProjects(repo, "mallory")
	err := intruder.Delete(context.Background(), p.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CrossTenantWrite, errors.CodeOf(err))
}
