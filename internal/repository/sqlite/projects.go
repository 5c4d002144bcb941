package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

var _ types.ProjectRepository = projectStore{}

// projectStore, like branchStore and its siblings, exists so each
// aggregate's FindByID/Save/Delete can have its own signature without
// colliding on *Store's method set.
type projectStore struct{ *Store }

func (s *Store) Projects() types.ProjectRepository { return projectStore{s} }

func (p projectStore) FindByID(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	return p.findOne(ctx, "id = ?", id.String())
}

func (p projectStore) FindByName(ctx context.Context, userID, name string) (*types.Project, error) {
	return p.findOne(ctx, "user_id = ? AND name = ?", userID, name)
}

func (p projectStore) findOne(ctx context.Context, where string, args ...any) (*types.Project, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, name, description, status, user_id, created_at, updated_at
		FROM projects WHERE `+where, args...)
	proj := &types.Project{}
	var id string
	if err := row.Scan(&id, &proj.Name, &proj.Description, &proj.Status, &proj.UserID, &proj.CreatedAt, &proj.UpdatedAt); err != nil {
		return nil, mapError("project", args[len(args)-1].(string), err)
	}
	proj.ID = uuid.MustParse(id)
	return proj, nil
}

func (p projectStore) FindAll(ctx context.Context, userID string) ([]*types.Project, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, description, status, user_id, created_at, updated_at
		FROM projects WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, mapError("project", userID, err)
	}
	defer rows.Close()

	var out []*types.Project
	for rows.Next() {
		proj := &types.Project{}
		var id string
		if err := rows.Scan(&id, &proj.Name, &proj.Description, &proj.Status, &proj.UserID, &proj.CreatedAt, &proj.UpdatedAt); err != nil {
			return nil, mapError("project", userID, err)
		}
		proj.ID = uuid.MustParse(id)
		out = append(out, proj)
	}
	return out, rows.Err()
}

func (p projectStore) Save(ctx context.Context, proj *types.Project) error {
	if proj.ID == uuid.Nil {
		proj.ID = uuid.New()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO projects (id, name, description, status, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description,
			status=excluded.status, updated_at=excluded.updated_at`,
		proj.ID.String(), proj.Name, proj.Description, proj.Status, proj.UserID, proj.CreatedAt, proj.UpdatedAt)
	return mapError("project", proj.Name, err)
}

// Delete removes, in one transaction, the tasks of the project's branches,
// its branches, its agents, its project-level context, and the project
// itself. Subtasks, dependency edges, and branch- or task-level contexts
// are not deleted here.
func (p projectStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("project", id.String(), err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM tasks WHERE branch_id IN (SELECT id FROM branches WHERE project_id = ?)`,
		`DELETE FROM branches WHERE project_id = ?`,
		`DELETE FROM agents WHERE project_id = ?`,
		`DELETE FROM project_contexts WHERE project_id = ?`,
		`DELETE FROM projects WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id.String()); err != nil {
			return mapError("project", id.String(), err)
		}
	}
	return tx.Commit()
}
