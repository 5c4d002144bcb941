package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/denkhaus/conductor/internal/types"
)

var _ types.BranchRepository = (*branchStore)(nil)

// branchStore exists only so Store can implement both
// ProjectRepository.FindByID(id) and BranchRepository.FindByID(id)
// without an ambiguous method set; the orchestration facade addresses
// branches through this accessor.
type branchStore struct{ *Store }

func (s *Store) Branches() types.BranchRepository { return branchStore{s} }

func (b branchStore) FindByID(ctx context.Context, id uuid.UUID) (*types.Branch, error) {
	row := b.db.QueryRowContext(ctx, `SELECT id, project_id, name, description, assigned_agent_id,
		status, task_count, completed_task_count, user_id FROM branches WHERE id = ?`, id.String())
	return scanBranch(row, "branch", id.String())
}

func (b branchStore) FindByName(ctx context.Context, userID string, projectID uuid.UUID, name string) (*types.Branch, error) {
	row := b.db.QueryRowContext(ctx, `SELECT id, project_id, name, description, assigned_agent_id,
		status, task_count, completed_task_count, user_id FROM branches
		WHERE user_id = ? AND project_id = ? AND name = ?`, userID, projectID.String(), name)
	return scanBranch(row, "branch", name)
}

func (b branchStore) FindAll(ctx context.Context, userID string, projectID *uuid.UUID) ([]*types.Branch, error) {
	query := `SELECT id, project_id, name, description, assigned_agent_id,
		status, task_count, completed_task_count, user_id FROM branches WHERE user_id = ?`
	args := []any{userID}
	if projectID != nil {
		query += ` AND project_id = ?`
		args = append(args, projectID.String())
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("branch", userID, err)
	}
	defer rows.Close()

	var out []*types.Branch
	for rows.Next() {
		br, err := scanBranchRows(rows)
		if err != nil {
			return nil, mapError("branch", userID, err)
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (b branchStore) Save(ctx context.Context, br *types.Branch) error {
	if br.ID == uuid.Nil {
		br.ID = uuid.New()
	}
	var assignedAgent any
	if br.AssignedAgentID != nil {
		assignedAgent = br.AssignedAgentID.String()
	}
	_, err := b.db.ExecContext(ctx, `INSERT INTO branches (id, project_id, name, description,
		assigned_agent_id, status, task_count, completed_task_count, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description,
			assigned_agent_id=excluded.assigned_agent_id, status=excluded.status,
			task_count=excluded.task_count, completed_task_count=excluded.completed_task_count`,
		br.ID.String(), br.ProjectID.String(), br.Name, br.Description, assignedAgent,
		br.Status, br.TaskCount, br.CompletedTaskCount, br.UserID)
	return mapError("branch", br.Name, err)
}

func (b branchStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("branch", id.String(), err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE branch_id = ?`, id.String()); err != nil {
		return mapError("branch", id.String(), err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM branch_contexts WHERE branch_id = ?`, id.String()); err != nil {
		return mapError("branch", id.String(), err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, id.String()); err != nil {
		return mapError("branch", id.String(), err)
	}
	return tx.Commit()
}

func (b branchStore) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM branches WHERE project_id = ?`, projectID.String())
	return mapError("branch", projectID.String(), err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBranch(row rowScanner, kind, id string) (*types.Branch, error) {
	br, err := scanBranchRows(row)
	if err != nil {
		return nil, mapError(kind, id, err)
	}
	return br, nil
}

func scanBranchRows(row rowScanner) (*types.Branch, error) {
	br := &types.Branch{}
	var id, projectID string
	var assignedAgent *string
	if err := row.Scan(&id, &projectID, &br.Name, &br.Description, &assignedAgent,
		&br.Status, &br.TaskCount, &br.CompletedTaskCount, &br.UserID); err != nil {
		return nil, err
	}
	br.ID = uuid.MustParse(id)
	br.ProjectID = uuid.MustParse(projectID)
	if assignedAgent != nil {
		u := uuid.MustParse(*assignedAgent)
		br.AssignedAgentID = &u
	}
	return br, nil
}
